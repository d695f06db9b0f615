package session

// Entry is one stored credential. It records the timestamps of its own
// expire and max buckets so the index can find it without key rebuilding.
type Entry struct {
	Name     string
	Settings map[string]any

	// Interval is the idle timeout in seconds applied on every refresh.
	Interval int64

	addr     string
	id       string
	password []byte
	hasPass  bool
	expire   int64
	max      int64
}

func (e *Entry) Expire() int64 { return e.expire }
func (e *Entry) Max() int64    { return e.max }

// Password returns a copy of the credential; ok is false for a null password.
func (e *Entry) Password() (string, bool) {
	if !e.hasPass {
		return "", false
	}
	return string(e.password), true
}

// wipe overwrites the credential bytes before the entry is dropped. This is
// best effort only: decoded request strings and encoded responses hold their
// own copies, and the collector decides when any of that memory is reused.
func (e *Entry) wipe() {
	for i := range e.password {
		e.password[i] = 0
	}
	e.password = nil
	e.hasPass = false
	e.Settings = nil
}
