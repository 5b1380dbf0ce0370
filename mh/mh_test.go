package mh

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/markov2/go-mailbox/folder"
)

func TestDetectRecognisesNumericFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "1"), []byte("Subject: x\n\nbody\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !Detect(dir) {
		t.Fatal("expected Detect to recognise a directory with a numeric file")
	}
}

func TestDetectRecognisesSequencesFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, sequencesFile), []byte("cur: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !Detect(dir) {
		t.Fatal("expected Detect to recognise .mh_sequences")
	}
}

func TestOpenAppliesCurAndUnseenLabels(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "1"), []byte("Subject: one\n\nbody one\n"), 0o644)
	os.WriteFile(filepath.Join(dir, "2"), []byte("Subject: two\n\nbody two\n"), 0o644)
	os.WriteFile(filepath.Join(dir, sequencesFile), []byte("cur: 2\nunseen: 1\n"), 0o644)

	m, err := Open(dir, folder.Options{Access: folder.ReadOnly, Extract: folder.Always})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer m.Close(folder.CloseOptions{})

	if len(m.Messages()) != 2 {
		t.Fatalf("got %d messages, want 2", len(m.Messages()))
	}
	if m.Messages()[0].HasLabel("seen") {
		t.Error("message 1 should be unseen")
	}
	if !m.Messages()[1].HasLabel("seen") {
		t.Error("message 2 should default to seen")
	}
	if !m.Messages()[1].HasLabel("current") {
		t.Error("message 2 should carry the current label from cur: 2")
	}
}

func TestWriteRewritesSequencesAfterDelete(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "1"), []byte("Subject: one\n\nbody one\n"), 0o644)
	os.WriteFile(filepath.Join(dir, "2"), []byte("Subject: two\n\nbody two\n"), 0o644)
	os.WriteFile(filepath.Join(dir, sequencesFile), []byte("cur: 2\n"), 0o644)

	m, err := Open(dir, folder.Options{Access: folder.ReadWrite, Extract: folder.Always, LockType: "none"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer m.Close(folder.CloseOptions{})

	if err := m.DeleteMessage(0); err != nil {
		t.Fatal(err)
	}
	result, err := m.Write(folder.Replace)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if result.Written != 1 || result.Deleted != 1 {
		t.Fatalf("Write() result = %+v, want {1 1}", result)
	}
	if _, err := os.Stat(filepath.Join(dir, "1")); !os.IsNotExist(err) {
		t.Error("expected file 1 to be removed after delete+write")
	}
	if _, err := os.Stat(filepath.Join(dir, "2")); err != nil {
		t.Error("expected file 2 to survive the write (renumber defaults to false)")
	}

	data, err := os.ReadFile(filepath.Join(dir, sequencesFile))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "cur: 2") {
		t.Errorf(".mh_sequences = %q, want it to still record cur: 2", data)
	}
}

func TestWriteRenumberCompactsFilenames(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "1"), []byte("Subject: one\n\nbody one\n"), 0o644)
	os.WriteFile(filepath.Join(dir, "5"), []byte("Subject: five\n\nbody five\n"), 0o644)

	m, err := Open(dir, folder.Options{Access: folder.ReadWrite, Extract: folder.Always, LockType: "none"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer m.Close(folder.CloseOptions{})
	m.SetRenumber(true)

	if _, err := m.Write(folder.Replace); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "2")); err != nil {
		t.Error("expected the second message to be renumbered down to 2")
	}
	if _, err := os.Stat(filepath.Join(dir, "5")); !os.IsNotExist(err) {
		t.Error("expected the hole at 5 to be closed by renumbering")
	}
}

func TestExpandAndCollapseRangeRoundTrip(t *testing.T) {
	nums := expandRange("5-8")
	want := []int{5, 6, 7, 8}
	if len(nums) != len(want) {
		t.Fatalf("expandRange(5-8) = %v, want %v", nums, want)
	}
	for i := range want {
		if nums[i] != want[i] {
			t.Fatalf("expandRange(5-8) = %v, want %v", nums, want)
		}
	}
	if got := collapseRange([]int{3, 5, 6, 7, 8, 11}); got != "3 5-8 11" {
		t.Errorf("collapseRange = %q, want %q", got, "3 5-8 11")
	}
}
