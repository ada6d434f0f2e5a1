package webhooks

import "testing"

func TestSignVerifyRoundTrip(t *testing.T) {
	body := []byte(`{"id":"evt_9","type":"plan.completed"}`)
	sig := SignHMAC("topsecret", body)
	if !VerifyHMAC("topsecret", body, sig) {
		t.Fatalf("signature should verify")
	}
}

func TestVerifyAcceptsBareHex(t *testing.T) {
	body := []byte(`{}`)
	sig := SignHMAC("k", body)
	bare := sig[len("sha256="):]
	if !VerifyHMAC("k", body, bare) {
		t.Fatalf("bare hex signature should verify")
	}
}

func TestVerifyRejectsTamper(t *testing.T) {
	body := []byte(`{"amount":1}`)
	sig := SignHMAC("k", body)
	if VerifyHMAC("k", []byte(`{"amount":2}`), sig) {
		t.Fatalf("tampered body should not verify")
	}
	if VerifyHMAC("other", body, sig) {
		t.Fatalf("wrong secret should not verify")
	}
	if VerifyHMAC("k", body, "sha256=zznothex") {
		t.Fatalf("invalid hex should not verify")
	}
}
