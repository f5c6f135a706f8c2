package features

import (
	"encoding/json"
	"fmt"
	"strings"

	"juparc/internal/shared/util"
)

// Counters holds one count per vocabulary category plus the overflow text.
// The zero value is a valid, fully seeded counter set.
type Counters struct {
	values [numCategories]int
	Others string
}

func NewCounters() *Counters {
	return &Counters{}
}

func (c *Counters) Get(cat Category) int {
	return c.values[cat]
}

// Value returns a counter by field name.
func (c *Counters) Value(key string) (int, bool) {
	cat, ok := categoryIndex[key]
	if !ok {
		return 0, false
	}
	return c.values[cat], true
}

func (c *Counters) inc(cat Category) {
	c.values[cat]++
}

func (c *Counters) overflow(name string) {
	c.Others += name + " "
}

// Add folds o into c. Overflow texts are joined with a single space.
func (c *Counters) Add(o *Counters) {
	for i := range c.values {
		c.values[i] += o.values[i]
	}
	if o.Others != "" {
		if c.Others != "" {
			c.Others += " "
		}
		c.Others += o.Others
	}
}

func (c *Counters) Clone() *Counters {
	out := *c
	return &out
}

// Equal reports whether both counter sets hold the same values.
func (c *Counters) Equal(o *Counters) bool {
	return c.values == o.values && c.Others == o.Others
}

func (c *Counters) Record() util.Record {
	r := make(util.Record, 0, numCategories+1)
	for i, key := range categoryKeys {
		r = append(r, util.Field{Key: key, Value: c.values[i]})
	}
	return append(r, util.Field{Key: OthersKey, Value: c.Others})
}

func (c *Counters) MarshalJSON() ([]byte, error) {
	return c.Record().MarshalJSON()
}

// UnmarshalJSON accepts any subset of the vocabulary. Unknown keys are
// rejected so that schema drift is noticed.
func (c *Counters) UnmarshalJSON(data []byte) error {
	var out Counters
	err := util.DecodeObject(data, func(key string, raw json.RawMessage) error {
		if key == OthersKey {
			return json.Unmarshal(raw, &out.Others)
		}
		cat, ok := categoryIndex[key]
		if !ok {
			return fmt.Errorf("unknown counter %q", key)
		}
		return json.Unmarshal(raw, &out.values[cat])
	})
	if err != nil {
		return err
	}
	out.Others = strings.TrimSpace(out.Others)
	*c = out
	return nil
}
