package idx

import (
	"crypto/rand"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ID is a ULID in its canonical 26 character Crockford form. Users, refresh
// tokens, bounties and messages are all keyed by one; request IDs come from
// the same source.
type ID string

// Zero is the empty ID.
const Zero ID = ""

// ErrInvalid reports a malformed ULID string.
var ErrInvalid = errors.New("idx: invalid ulid")

// IDs minted within one millisecond must still sort in creation order:
// keyset pagination breaks ties on id.
var source = struct {
	sync.Mutex
	entropy *ulid.MonotonicEntropy
}{entropy: ulid.Monotonic(rand.Reader, 0)}

// New returns an ID stamped with the current time.
func New() ID { return NewAt(time.Now().UTC()) }

// NewAt returns an ID stamped with t. Tests use it to seed rows in a known
// order.
func NewAt(t time.Time) ID {
	source.Lock()
	u := ulid.MustNew(ulid.Timestamp(t), source.entropy)
	source.Unlock()
	return ID(u.String())
}

func NewString() string { return New().String() }

// Parse trims s and accepts it only if it is a strict ULID.
func Parse(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if _, err := ulid.ParseStrict(s); s == "" || err != nil {
		return Zero, ErrInvalid
	}
	return ID(s), nil
}

// MustParse is Parse for literals in tests.
func MustParse(s string) ID {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

func Valid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

func (id ID) IsZero() bool   { return id == Zero }
func (id ID) String() string { return string(id) }

// Time is the millisecond timestamp embedded in id, or the zero time when id
// does not parse.
func (id ID) Time() time.Time {
	u, err := ulid.ParseStrict(string(id))
	if err != nil {
		return time.Time{}
	}
	return ulid.Time(u.Time()).UTC()
}

// Compare orders IDs the way SQLite orders their TEXT columns.
func Compare(a, b ID) int { return strings.Compare(string(a), string(b)) }
