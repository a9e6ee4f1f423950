// internal/namur/table.go
package namur

import (
	"sort"
	"strings"
	"sync"
)

// Rule selects how a response to a command is interpreted.
type Rule int

const (
	// RuleNumeric is a readout followed by a two character readback suffix.
	RuleNumeric Rule = iota
	// RuleIdentity is free text (name, type, version) returned verbatim.
	RuleIdentity
	// RuleBooleanFirstChar is a status whose first character is the flag.
	RuleBooleanFirstChar
	// RuleTwoCharCode is a status whose first two characters are a code.
	RuleTwoCharCode
	// RuleEchoPrefixed is a command the instrument always echoes before the value.
	RuleEchoPrefixed
	// RuleUnsupported marks a command whose response cannot be interpreted yet.
	RuleUnsupported
)

var ruleNames = map[Rule]string{
	RuleNumeric:          "numeric",
	RuleIdentity:         "identity",
	RuleBooleanFirstChar: "boolean_first_char",
	RuleTwoCharCode:      "two_char_code",
	RuleEchoPrefixed:     "echo_prefixed",
	RuleUnsupported:      "unsupported",
}

func (r Rule) String() string {
	if name, ok := ruleNames[r]; ok {
		return name
	}
	return "unknown"
}

const (
	defaultActiveFlag = "1"
	defaultActiveCode = "11"
)

// CrossWiredMarker appears in a response when a hotplate set up to drive a
// Eurostar stirrer answers in its place. Every table checks for it.
const CrossWiredMarker = "IN_PV_4"

const crossWiredHint = "the instrument is forwarding Eurostar stirrer traffic; check the hotplate settings"

// Entry is the decoding rule registered for one command verb.
type Entry struct {
	Rule Rule
	// Active is the prefix that means "on" for the status rules.
	Active string
}

// Sentinel is a marker that, when found in a response, means the instrument
// is talking to the wrong kind of equipment.
type Sentinel struct {
	Marker string
	Hint   string
}

// CommandTable maps command verbs to decoding rules for one instrument family.
// Unregistered verbs decode as RuleNumeric.
type CommandTable struct {
	name      string
	entries   map[string]Entry
	sentinels []Sentinel
	mu        sync.RWMutex
}

// NewCommandTable creates an empty table.
func NewCommandTable(name string) *CommandTable {
	return &CommandTable{
		name:    name,
		entries: make(map[string]Entry),
	}
}

// DefaultTable returns a table holding the identity commands shared by all
// NAMUR instruments and the cross-wiring sentinel.
func DefaultTable() *CommandTable {
	return NewCommandTable("namur").
		Register("IN_NAME", RuleIdentity).
		Register("IN_TYPE", RuleIdentity).
		Register("IN_DEVICE", RuleIdentity).
		Register("IN_VERSION", RuleIdentity).
		Register("IN_SOFTWARE_ID", RuleIdentity).
		Register("IN_DATE", RuleIdentity).
		WithSentinel(CrossWiredMarker, crossWiredHint)
}

// Name returns the instrument family the table was built for.
func (t *CommandTable) Name() string { return t.name }

// Register binds a verb to a rule with the default active flag or code.
func (t *CommandTable) Register(verb string, rule Rule) *CommandTable {
	entry := Entry{Rule: rule}
	switch rule {
	case RuleBooleanFirstChar:
		entry.Active = defaultActiveFlag
	case RuleTwoCharCode:
		entry.Active = defaultActiveCode
	}
	return t.RegisterEntry(verb, entry)
}

// RegisterEntry binds a verb to an explicit entry, replacing any previous one.
func (t *CommandTable) RegisterEntry(verb string, entry Entry) *CommandTable {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries[Verb(verb)] = entry
	return t
}

// WithSentinel adds a cross-wiring marker. A marker that is already
// registered keeps its place and takes the new hint.
func (t *CommandTable) WithSentinel(marker, hint string) *CommandTable {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.sentinels {
		if t.sentinels[i].Marker == marker {
			t.sentinels[i].Hint = hint
			return t
		}
	}
	t.sentinels = append(t.sentinels, Sentinel{Marker: marker, Hint: hint})
	return t
}

// Lookup returns the entry for the command's verb.
func (t *CommandTable) Lookup(command string) Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if entry, ok := t.entries[Verb(command)]; ok {
		return entry
	}
	return Entry{Rule: RuleNumeric}
}

// Sentinels returns a copy of the registered markers.
func (t *CommandTable) Sentinels() []Sentinel {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Sentinel, len(t.sentinels))
	copy(out, t.sentinels)
	return out
}

// Verbs lists the registered verbs in sorted order.
func (t *CommandTable) Verbs() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	verbs := make([]string, 0, len(t.entries))
	for verb := range t.entries {
		verbs = append(verbs, verb)
	}
	sort.Strings(verbs)
	return verbs
}

// Clone returns an independent copy that can be extended.
func (t *CommandTable) Clone(name string) *CommandTable {
	t.mu.RLock()
	defer t.mu.RUnlock()

	clone := NewCommandTable(name)
	for verb, entry := range t.entries {
		clone.entries[verb] = entry
	}
	clone.sentinels = append(clone.sentinels, t.sentinels...)
	return clone
}

// Verb returns the command token before the first space.
func Verb(command string) string {
	command = strings.TrimSpace(command)
	if i := strings.IndexByte(command, ' '); i >= 0 {
		return command[:i]
	}
	return command
}
