package parser

import (
	"bytes"
	"regexp"
	"strings"
	"testing"
)

func mboxSeparator() *regexp.Regexp {
	return regexp.MustCompile(`^From (\S+) `)
}

func TestReadSeparator(t *testing.T) {
	data := "From alice@example.com Mon Jan  1 00:00:00 2001\nSubject: hi\n\nbody\n" +
		"From bob@example.com Mon Jan  2 00:00:00 2001\nSubject: yo\n\nbody2\n"
	p := New(bytes.NewReader([]byte(data)))
	p.PushSeparator(mboxSeparator())

	off, line, err := p.ReadSeparator()
	if err != nil {
		t.Fatalf("first separator: %v", err)
	}
	if off != 0 {
		t.Errorf("offset = %d, want 0", off)
	}
	if !strings.HasPrefix(line, "From alice@example.com") {
		t.Errorf("line = %q", line)
	}
}

func TestReadHeaderFoldsContinuations(t *testing.T) {
	data := "Subject: hello\n  world\nFrom: a@b.com\n\nbody\n"
	p := New(bytes.NewReader([]byte(data)))

	fields, begin, end, err := p.ReadHeader()
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if begin != 0 {
		t.Errorf("begin = %d, want 0", begin)
	}
	if len(fields) != 2 {
		t.Fatalf("got %d fields, want 2: %+v", len(fields), fields)
	}
	if fields[0].Name != "subject" || fields[0].Body != "hello world" {
		t.Errorf("fields[0] = %+v", fields[0])
	}
	if fields[1].Name != "from" || fields[1].Body != "a@b.com" {
		t.Errorf("fields[1] = %+v", fields[1])
	}
	if data[end:] != "body\n" {
		t.Errorf("end = %d, remaining = %q", end, data[end:])
	}
}

func TestReadHeaderOffsetsAfterMultipleSeparators(t *testing.T) {
	msg1 := "From alice@example.com Mon Jan  1 00:00:00 2001\nSubject: hi\n\nbody\n"
	msg2 := "From bob@example.com Mon Jan  2 00:00:00 2001\nSubject: yo\n\nbody2\n"
	msg3 := "From carol@example.com Mon Jan  3 00:00:00 2001\nSubject: hey\n\nbody3\n"
	data := msg1 + msg2 + msg3
	p := New(bytes.NewReader([]byte(data)))
	p.PushSeparator(mboxSeparator())

	for i, want := range []string{msg1, msg2, msg3} {
		msgBegin, line, err := p.ReadSeparator()
		if err != nil {
			t.Fatalf("message %d: ReadSeparator: %v", i, err)
		}
		sepLine := strings.SplitN(want, "\n", 2)[0] + "\n"
		if line+"\n" != sepLine {
			t.Errorf("message %d: separator line = %q", i, line)
		}

		_, headBegin, _, err := p.ReadHeader()
		if err != nil {
			t.Fatalf("message %d: ReadHeader: %v", i, err)
		}
		if want := msgBegin + int64(len(sepLine)); headBegin != want {
			t.Errorf("message %d: headBegin = %d, want %d (msgBegin %d + separator length %d)",
				i, headBegin, want, msgBegin, len(sepLine))
		}

		if _, _, _, err := p.BodyAsString(0, 0); err != nil {
			t.Fatalf("message %d: BodyAsString: %v", i, err)
		}
	}
}

func TestReadHeaderTruncatedFails(t *testing.T) {
	data := "Subject: hello\nFrom: a@b.com\n"
	p := New(bytes.NewReader([]byte(data)))
	if _, _, _, err := p.ReadHeader(); err == nil {
		t.Error("expected MalformedHeader for a header with no blank line before EOF")
	}
}

func TestBodyAsStringStopsAtSeparator(t *testing.T) {
	data := "From a@b Mon\nSubject: x\n\nline one\nline two\n" +
		"From c@d Tue\nSubject: y\n\nsecond\n"
	p := New(bytes.NewReader([]byte(data)))
	p.PushSeparator(mboxSeparator())

	if _, _, err := p.ReadSeparator(); err != nil {
		t.Fatalf("first separator: %v", err)
	}
	if _, _, _, err := p.ReadHeader(); err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}

	body, begin, end, err := p.BodyAsString(0, 0)
	if err != nil {
		t.Fatalf("BodyAsString: %v", err)
	}
	if string(body) != "line one\nline two\n" {
		t.Errorf("body = %q", body)
	}
	if begin >= end {
		t.Errorf("begin=%d end=%d", begin, end)
	}

	off, line, err := p.ReadSeparator()
	if err != nil {
		t.Fatalf("second separator: %v", err)
	}
	if !strings.HasPrefix(line, "From c@d") {
		t.Errorf("line = %q", line)
	}
	if off != end {
		t.Errorf("second separator offset = %d, want %d (body end)", off, end)
	}
}

func TestBodyAsStringRunsToEOFWithoutSeparator(t *testing.T) {
	data := "Subject: x\n\nno trailing newline at all"
	p := New(bytes.NewReader([]byte(data)))
	if _, _, _, err := p.ReadHeader(); err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	body, _, end, err := p.BodyAsString(0, 0)
	if err != nil {
		t.Fatalf("BodyAsString: %v", err)
	}
	if string(body) != "no trailing newline at all" {
		t.Errorf("body = %q", body)
	}
	if end != int64(len(data)) {
		t.Errorf("end = %d, want %d", end, len(data))
	}
}

func TestBodyAsLinesPreservesCRLF(t *testing.T) {
	data := "Subject: x\r\n\r\nfoo\r\nbar\n"
	p := New(bytes.NewReader([]byte(data)))
	if _, _, _, err := p.ReadHeader(); err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	lines, _, _, err := p.BodyAsLines(0, 0)
	if err != nil {
		t.Fatalf("BodyAsLines: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0].EOL != EOLCRLF || string(lines[0].Content) != "foo" {
		t.Errorf("lines[0] = %+v", lines[0])
	}
	if lines[1].EOL != EOLLF || string(lines[1].Content) != "bar" {
		t.Errorf("lines[1] = %+v", lines[1])
	}
}

func TestSeekToResets(t *testing.T) {
	data := "From a@b Mon\nSubject: x\n\nbody\n"
	p := New(bytes.NewReader([]byte(data)))
	p.PushSeparator(mboxSeparator())

	off, _, err := p.ReadSeparator()
	if err != nil {
		t.Fatalf("ReadSeparator: %v", err)
	}
	if _, _, _, err := p.ReadHeader(); err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if _, _, _, err := p.BodyAsString(0, 0); err != nil {
		t.Fatalf("BodyAsString: %v", err)
	}

	if err := p.SeekTo(off); err != nil {
		t.Fatalf("SeekTo: %v", err)
	}
	if p.FilePosition() != off {
		t.Errorf("FilePosition = %d, want %d", p.FilePosition(), off)
	}
	off2, line, err := p.ReadSeparator()
	if err != nil {
		t.Fatalf("ReadSeparator after seek: %v", err)
	}
	if off2 != off || !strings.HasPrefix(line, "From a@b") {
		t.Errorf("re-read separator mismatch: off2=%d line=%q", off2, line)
	}
}
