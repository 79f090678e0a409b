package protocol

import (
	"testing"
)

func TestHandshakeShipsThenAttacks(t *testing.T) {
	var hs HandshakeState

	if ev := Decode("TOTAL_SHIPS=3", &hs); ev != nil {
		t.Fatalf("expected no event for first half, got %#v", ev)
	}
	ev := Decode("TOTAL_ATTACKS=10", &hs)
	start, ok := ev.(GameStart)
	if !ok {
		t.Fatalf("expected GameStart, got %#v", ev)
	}
	if start.TotalAttacks != 10 || start.TotalShips != 3 {
		t.Errorf("expected GameStart{10, 3}, got=%+v", start)
	}

	_, hasShips, _, hasAttacks := hs.Pending()
	if hasShips || hasAttacks {
		t.Errorf("expected handshake cleared, got ships=%v attacks=%v", hasShips, hasAttacks)
	}
}

func TestHandshakeAttacksThenShips(t *testing.T) {
	var hs HandshakeState

	if ev := Decode("TOTAL_ATTACKS=12", &hs); ev != nil {
		t.Fatalf("expected no event for first half, got %#v", ev)
	}
	ev := Decode("TOTAL_SHIPS=4", &hs)
	if ev != (GameStart{TotalAttacks: 12, TotalShips: 4}) {
		t.Fatalf("expected GameStart{12, 4}, got %#v", ev)
	}

	// the pair is consumed, a lone half must not start another game
	if ev := Decode("TOTAL_SHIPS=4", &hs); ev != nil {
		t.Errorf("expected no event after handshake completion, got %#v", ev)
	}
}

func TestHandshakeOverwritesPendingHalf(t *testing.T) {
	var hs HandshakeState

	for i := 0; i < 2; i++ {
		if ev := Decode("TOTAL_SHIPS=5", &hs); ev != nil {
			t.Fatalf("expected no event, got %#v", ev)
		}
	}
	ships, hasShips, _, hasAttacks := hs.Pending()
	if !hasShips || ships != 5 || hasAttacks {
		t.Fatalf("expected pending ships=5 only, got ships=%d has=%v attacks=%v", ships, hasShips, hasAttacks)
	}

	Decode("TOTAL_SHIPS=7", &hs)
	if ships, _, _, _ := hs.Pending(); ships != 7 {
		t.Errorf("expected second value to overwrite, got %d", ships)
	}
}

func TestHandshakeMalformedValueLeavesStateUntouched(t *testing.T) {
	var hs HandshakeState
	Decode("TOTAL_ATTACKS=9", &hs)

	for _, line := range []string{"TOTAL_SHIPS=", "TOTAL_SHIPS=abc", "TOTAL_SHIPS=3.5"} {
		if ev := Decode(line, &hs); ev != nil {
			t.Errorf("%q: expected no event, got %#v", line, ev)
		}
	}

	ships, hasShips, attacks, hasAttacks := hs.Pending()
	if hasShips || ships != 0 {
		t.Errorf("expected no pending ships, got %d (%v)", ships, hasShips)
	}
	if !hasAttacks || attacks != 9 {
		t.Errorf("expected pending attacks=9, got %d (%v)", attacks, hasAttacks)
	}
}

func TestDecodeSimpleLines(t *testing.T) {
	tests := []struct {
		line string
		want Event
	}{
		{"ATTACK", AttackConsumed{}},
		{"SHIP_DESTROYED", ShipDestroyed{}},
		{"WIN", Win{}},
		{"LOSE", Lose{}},
		{"RESET", BoardReset{}},
		{"MISS 3 4", CellMarked{X: 3, Y: 4, Mark: MarkMiss}},
		{"HIT 0 0", CellMarked{X: 0, Y: 0, Mark: MarkHit}},
		{"KILL 7 7", CellMarked{X: 7, Y: 7, Mark: MarkKill}},
		{"REVEAL 1 6", CellMarked{X: 1, Y: 6, Mark: MarkReveal}},
		{"HIT 9 -1", CellMarked{X: 9, Y: -1, Mark: MarkHit}},
		{"MISS 2 5 extra", CellMarked{X: 2, Y: 5, Mark: MarkMiss}},
		{"FOO BAR", Unrecognized{Raw: "FOO BAR"}},
		{"attack", Unrecognized{Raw: "attack"}},
		{"MISS", Unrecognized{Raw: "MISS"}},
		{"ATTACKS", Unrecognized{Raw: "ATTACKS"}},
	}

	for _, tt := range tests {
		var hs HandshakeState
		got := Decode(tt.line, &hs)
		if got != tt.want {
			t.Errorf("%q: expected %#v, got %#v", tt.line, tt.want, got)
		}
	}
}

func TestDecodeMalformedCellLines(t *testing.T) {
	for _, line := range []string{"MISS abc 4", "MISS 3", "HIT 1 y", "KILL  1 2", "REVEAL 1.5 2"} {
		var hs HandshakeState
		if ev := Decode(line, &hs); ev != nil {
			t.Errorf("%q: expected no event, got %#v", line, ev)
		}
	}
}

func TestResetIgnoresHandshakeState(t *testing.T) {
	var hs HandshakeState
	Decode("TOTAL_SHIPS=2", &hs)

	if ev := Decode("RESET", &hs); ev != (BoardReset{}) {
		t.Fatalf("expected BoardReset, got %#v", ev)
	}
	if _, hasShips, _, _ := hs.Pending(); !hasShips {
		t.Error("expected RESET to leave the pending handshake alone")
	}
}

func TestDecodeIsDeterministicAcrossFreshStates(t *testing.T) {
	lines := []string{"TOTAL_SHIPS=3", "TOTAL_ATTACKS=1", "HIT 2 2", "FOO", "MISS x 1", "WIN"}
	for _, line := range lines {
		var a, b HandshakeState
		if ea, eb := Decode(line, &a), Decode(line, &b); ea != eb {
			t.Errorf("%q: expected identical events, got %#v and %#v", line, ea, eb)
		}
	}
}

func TestDecoderReset(t *testing.T) {
	var d Decoder
	d.Decode("TOTAL_ATTACKS=5")
	d.Reset()

	if ev := d.Decode("TOTAL_SHIPS=2"); ev != nil {
		t.Errorf("expected reset to drop pending attacks, got %#v", ev)
	}
	state := d.State()
	if ships, hasShips, _, _ := state.Pending(); !hasShips || ships != 2 {
		t.Errorf("expected pending ships=2, got %d (%v)", ships, hasShips)
	}
}
