package notify

import (
	"encoding/json"
	"testing"

	"framecache/store"
)

func TestEnvelopeJSONRoundTrip(t *testing.T) {
	key := store.SFDE{Site: "H1", FrameType: "R", Duration: 16, Extension: "gwf"}
	frag := store.Fragment{}
	frag.Add(key, 0, 16)

	env := Envelope{DC: frag, Hot: 1700000000}
	data, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var got Envelope
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.Hot != 1700000000 {
		t.Fatalf("got hot=%d", got.Hot)
	}
	if len(got.DC[key]) != 1 || got.DC[key][0].End != 16 {
		t.Fatalf("got %v", got.DC)
	}
}
