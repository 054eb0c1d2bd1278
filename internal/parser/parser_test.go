package parser

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cwclog/internal/model"
)

const sampleLog = `<LOG TIME="2:15 PM" DATE="6/1/18" VERSION="1.0">
<S T="10:00:01.5" R="BA">
  (tell :content (spoken :what "Hello"))
</S>
<R T="10:00:02" S="TEXTTAGGER">
(tell :sender TEXTTAGGER
      :content (utterance :text "hi"))
</R>
<S T="10:00:03" R="QCA"> (ask-if :content (x)) </S>
`

func TestSegmentOrderAndFields(t *testing.T) {
	records, err := Segment(sampleLog)
	if err != nil {
		t.Fatalf("Segment returned error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}

	first := records[0]
	if first.Direction != model.DirectionSent || first.Timestamp != "10:00:01.5" || first.Partner != "BA" {
		t.Fatalf("unexpected first record: %+v", first)
	}
	if first.Text != `(tell :content (spoken :what "Hello"))` {
		t.Fatalf("body should be trimmed: %q", first.Text)
	}

	second := records[1]
	if second.Direction != model.DirectionReceived || second.Partner != "TEXTTAGGER" {
		t.Fatalf("unexpected second record: %+v", second)
	}
	want := "(tell :sender TEXTTAGGER\n      :content (utterance :text \"hi\"))"
	if second.Text != want {
		t.Fatalf("embedded newlines should be preserved:\nwant %q\ngot  %q", want, second.Text)
	}

	if records[2].Partner != "QCA" || records[2].Text != "(ask-if :content (x))" {
		t.Fatalf("unexpected third record: %+v", records[2])
	}
}

func TestSegmentClosesOnMatchingMarker(t *testing.T) {
	text := `<S T="1" R="BA"> (tell :content (html :html "<R>x</R> and </R>")) </S>`
	records, err := Segment(text)
	if err != nil {
		t.Fatalf("Segment returned error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Text != `(tell :content (html :html "<R>x</R> and </R>"))` {
		t.Fatalf("body cut at the wrong closing marker: %q", records[0].Text)
	}
}

func TestSegmentMismatchedMarkersAreIgnored(t *testing.T) {
	text := `<S T="1" R="BA"> (tell) </R>
<R T="2" S="BA"> (tell) </R>`
	records, err := Segment(text)
	if err != nil {
		t.Fatalf("Segment returned error: %v", err)
	}
	if len(records) != 1 || records[0].Direction != model.DirectionReceived {
		t.Fatalf("expected only the well formed R block, got %+v", records)
	}
}

func TestSegmentNoSections(t *testing.T) {
	_, err := Segment(`<LOG TIME="x" DATE="y"> nothing here`)
	if !errors.Is(err, model.ErrNoSectionsFound) {
		t.Fatalf("expected ErrNoSectionsFound, got %v", err)
	}
}

func TestStartTime(t *testing.T) {
	got, err := StartTime(sampleLog)
	if err != nil {
		t.Fatalf("StartTime returned error: %v", err)
	}
	if got != "2:15 PM 6/1/18" {
		t.Fatalf("unexpected start time: %q", got)
	}

	if _, err := StartTime(`<S T="1" R="BA"> (tell) </S>`); !errors.Is(err, model.ErrMissingStartTime) {
		t.Fatalf("expected ErrMissingStartTime, got %v", err)
	}
}

func TestParseDirName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want DirInfo
	}{
		{
			name: "clic with date",
			in:   "clic-bob-2018-06-01_silly_name_1a2b3c",
			want: DirInfo{ImageID: "bob", ContainerName: "silly_name", ContainerHash: "1a2b3c", Interface: InterfaceCLIC},
		},
		{
			name: "sbgn",
			in:   "SBGN-bioagents_happy_turing_ff00",
			want: DirInfo{ImageID: "bioagents", ContainerName: "happy_turing", ContainerHash: "ff00", Interface: InterfaceSBGN},
		},
		{
			name: "other image",
			in:   "dev_quiet_lamp_abc",
			want: DirInfo{ImageID: "dev", ContainerName: "quiet_lamp", ContainerHash: "abc", Interface: InterfaceUnknown},
		},
		{
			name: "unmatched",
			in:   "logs",
			want: DirInfo{Interface: InterfaceUnknown},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ParseDirName(tc.in); got != tc.want {
				t.Fatalf("ParseDirName(%q) = %+v, want %+v", tc.in, got, tc.want)
			}
		})
	}
}

func TestReadLog(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "clic-bob_silly_name_1a2b")
	if err := os.MkdirAll(filepath.Join(dir, DefaultImageDir), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, DefaultLogFile), []byte(sampleLog), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	l, err := ReadLog(dir, ReadOptions{})
	if err != nil {
		t.Fatalf("ReadLog returned error: %v", err)
	}
	if l.ImageDir != filepath.Join(dir, DefaultImageDir) {
		t.Fatalf("unexpected image dir: %q", l.ImageDir)
	}
	if l.Info.Interface != InterfaceCLIC {
		t.Fatalf("unexpected interface: %s", l.Info.Interface)
	}

	records, err := l.Records()
	if err != nil || len(records) != 3 {
		t.Fatalf("Records() = %d records, err %v", len(records), err)
	}
	again, _ := l.Records()
	if &again[0] != &records[0] {
		t.Fatalf("records should be cached")
	}

	start, err := l.StartTime()
	if err != nil || start != "2:15 PM 6/1/18" {
		t.Fatalf("StartTime() = %q, %v", start, err)
	}
}

func TestReadLogMissingFile(t *testing.T) {
	if _, err := ReadLog(t.TempDir(), ReadOptions{}); err == nil {
		t.Fatalf("expected error for missing log file")
	}
}

func TestNewLog(t *testing.T) {
	l := NewLog("/logs/sbgn-bob_quiet_lamp_ff00", sampleLog)
	if l.Info.Interface != InterfaceSBGN || l.Info.ContainerName != "quiet_lamp" {
		t.Fatalf("unexpected dir info: %+v", l.Info)
	}
	if l.Text() != sampleLog {
		t.Fatalf("text should be kept verbatim")
	}
	records, err := l.Records()
	if err != nil || len(records) != 3 {
		t.Fatalf("Records() = %d records, err %v", len(records), err)
	}
	if _, err := NewLog("/logs/x", "no log header").StartTime(); !errors.Is(err, model.ErrMissingStartTime) {
		t.Fatalf("expected ErrMissingStartTime, got %v", err)
	}
}
