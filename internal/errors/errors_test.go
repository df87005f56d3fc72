// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package errors

import (
	"errors"
	"testing"
)

func TestConfigDecodeErrorIsValidation(t *testing.T) {
	decodeErr := errors.New("unsupported attribute \"target_pps\"")
	err := Wrapf(decodeErr, KindValidation, "config: trigger block %d", 2)

	if err.Error() != "config: trigger block 2: unsupported attribute \"target_pps\"" {
		t.Errorf("unexpected message: %q", err.Error())
	}
	if GetKind(err) != KindValidation {
		t.Errorf("expected KindValidation, got %v", GetKind(err))
	}
}

func TestNFQueueOpenFailureIsUnavailable(t *testing.T) {
	dialErr := errors.New("permission denied")
	err := Wrapf(dialErr, KindUnavailable, "source: open nfqueue %d", 0)

	if GetKind(err) != KindUnavailable {
		t.Errorf("expected KindUnavailable, got %v", GetKind(err))
	}
	if !Is(err, dialErr) {
		t.Error("expected the wrapped dial error to remain in the chain")
	}
}

func TestUnknownTriggerProtocolCarriesAttributes(t *testing.T) {
	err := Errorf(KindValidation, "config: unknown trigger protocol %q", "sctp")
	err = Attr(err, "queue", uint16(0))
	err = Attr(err, "protocol", "sctp")

	attrs := GetAttributes(err)
	if attrs["protocol"] != "sctp" {
		t.Errorf("expected protocol attribute, got %v", attrs["protocol"])
	}
	if attrs["queue"] != uint16(0) {
		t.Errorf("expected queue attribute, got %v", attrs["queue"])
	}
}

func TestGetKind_PlainStdlibErrorIsUnknown(t *testing.T) {
	if GetKind(errors.New("nfqueue: read timeout")) != KindUnknown {
		t.Errorf("expected KindUnknown for an un-tagged error")
	}
}

func TestAttributesSurviveWrapping(t *testing.T) {
	base := New(KindValidation, "syslog: host is required")
	base = Attr(base, "field", "syslog_host")

	wrapped := Wrap(base, KindInternal, "ddosentineld: load logging config")
	wrapped = Attr(wrapped, "component", "logging")

	attrs := GetAttributes(wrapped)
	if attrs["field"] != "syslog_host" || attrs["component"] != "logging" {
		t.Errorf("expected attributes from both layers, got %v", attrs)
	}
	if GetKind(wrapped) != KindInternal {
		t.Errorf("expected the outer Wrap's kind to win, got %v", GetKind(wrapped))
	}
}

func TestWrapNilReturnsNil(t *testing.T) {
	if Wrap(nil, KindInternal, "should stay nil") != nil {
		t.Error("expected Wrap(nil, ...) to return nil")
	}
	if Attr(nil, "k", "v") != nil {
		t.Error("expected Attr(nil, ...) to return nil")
	}
}
