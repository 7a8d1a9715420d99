package driver

import (
	"path/filepath"
	"testing"

	"framecache/store"
)

func TestPayloadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "w0.json")

	key := store.SFDE{Site: "H1", FrameType: "R", Duration: 16, Extension: "gwf"}
	frag := store.Fragment{}
	frag.Add(key, 0, 16)

	p := &Payload{
		DC:  map[string]store.Fragment{"/data/H1": frag},
		Hot: map[string]int64{"/data/H1": 1700000000},
	}
	if err := WritePayload(path, p); err != nil {
		t.Fatalf("WritePayload: %v", err)
	}

	got, err := ReadPayload(path)
	if err != nil {
		t.Fatalf("ReadPayload: %v", err)
	}
	if got.Hot["/data/H1"] != 1700000000 {
		t.Fatalf("got %v", got.Hot)
	}
	gotFrag, ok := got.DC["/data/H1"]
	if !ok || len(gotFrag[key]) != 1 {
		t.Fatalf("got %v", got.DC)
	}
}
