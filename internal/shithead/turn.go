package shithead

// Turn is the live turn of one player. Exactly one Turn exists while a lobby
// is in active play; its timer is cancelled whenever the turn ends other
// than by timeout.
type Turn struct {
	PlayerID ClientID

	// serial distinguishes this turn from every other timer the lobby ever
	// started. A timeout that fires late identifies itself by serial and is
	// discarded if the turn has already moved on.
	serial uint64
	timer  *countdownTimer
}

// Cancel stops the turn's timer. Idempotent, and safe after firing.
func (t *Turn) Cancel() {
	t.timer.Cancel()
}
