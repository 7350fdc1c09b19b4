package memory

import (
	"bytes"
	"context"
	"testing"
	"time"
)

func TestSessionStoreRoundTrip(t *testing.T) {
	store := NewSessionStore()

	if got := store.GetConversationState("s1"); got != nil {
		t.Errorf("Expected nil state for unknown session, got %v", got)
	}

	state := []byte{0x01, 0x02, 0x03}
	store.SetConversationState("s1", state)

	if got := store.GetConversationState("s1"); !bytes.Equal(got, state) {
		t.Errorf("Expected %v, got %v", state, got)
	}

	// other sessions are isolated
	if got := store.GetConversationState("s2"); got != nil {
		t.Errorf("Expected nil state for other session, got %v", got)
	}

	store.Drop("s1")
	if got := store.GetConversationState("s1"); got != nil {
		t.Error("Expected nil state after Drop")
	}
}

func TestSessionStoreExpiry(t *testing.T) {
	store := NewSessionStore()
	store.ttl = 10 * time.Millisecond

	store.SetConversationState("s1", []byte{0xFF})
	time.Sleep(20 * time.Millisecond)

	if got := store.GetConversationState("s1"); got != nil {
		t.Error("Expected expired session state to read back as nil")
	}
}

func TestPersistentStoreCommitVisibility(t *testing.T) {
	store := NewPersistentStore()
	ctx := context.Background()

	// staged write is invisible
	if err := store.Set(ctx, "u1", "volume", 80, false); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	v, err := store.GetInt(ctx, "u1", "volume", 50)
	if err != nil {
		t.Fatalf("GetInt failed: %v", err)
	}
	if v != 50 {
		t.Errorf("Expected fallback 50 before commit, got %d", v)
	}

	// commit flushes everything staged
	if err := store.Set(ctx, "u1", "device_id", "abc", true); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	v, _ = store.GetInt(ctx, "u1", "volume", 50)
	if v != 80 {
		t.Errorf("Expected committed volume 80, got %d", v)
	}
	id, _ := store.GetString(ctx, "u1", "device_id")
	if id != "abc" {
		t.Errorf("Expected device_id abc, got %q", id)
	}
}

func TestPersistentStoreDefaults(t *testing.T) {
	store := NewPersistentStore()
	ctx := context.Background()

	v, err := store.GetInt(ctx, "nobody", "volume", 50)
	if err != nil {
		t.Fatalf("GetInt failed: %v", err)
	}
	if v != 50 {
		t.Errorf("Expected default 50, got %d", v)
	}

	id, err := store.GetString(ctx, "nobody", "device_id")
	if err != nil {
		t.Fatalf("GetString failed: %v", err)
	}
	if id != "" {
		t.Errorf("Expected empty device_id, got %q", id)
	}
}
