package triggergate

import "testing"

func TestClassifyTerminatorAccepts(t *testing.T) {
	if classify("The door opened.") != verdictAccept {
		t.Fatal("expected accept after sentence terminator")
	}
	if classify("对话结束。") != verdictAccept {
		t.Fatal("expected accept after full-width terminator")
	}
}

func TestClassifyMidWordSpaceDrops(t *testing.T) {
	if classify("hello wor ") != verdictDrop {
		t.Fatal("expected drop for space inside alphanumeric run")
	}
}

func TestClassifyPauseMarkerAccepts(t *testing.T) {
	if classify("first, ") != verdictAccept {
		t.Fatal("expected accept after pause marker + space")
	}
}

func TestClassifyConjunctionAccepts(t *testing.T) {
	if classify("she left and ") != verdictAccept {
		t.Fatal("expected accept after conjunction + space")
	}
}

func TestClassifyNeutralOtherwise(t *testing.T) {
	if classify("some text here") != verdictNeutral {
		t.Fatal("expected neutral verdict for ordinary continuation")
	}
}

func TestFingerprintStableWithinProcess(t *testing.T) {
	a := Fingerprint("hello world")
	b := Fingerprint("hello world")
	if a != b {
		t.Fatal("expected identical fingerprints for identical content")
	}
	c := Fingerprint("hello world!")
	if a == c {
		t.Fatal("expected different fingerprints for different content")
	}
}
