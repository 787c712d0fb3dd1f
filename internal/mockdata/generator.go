package mockdata

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"time"
)

// Generator invents plausible values for fields that a page references but
// the selected profile does not define, based on the field name. It is
// safe for concurrent use.
type Generator struct {
	mu       sync.Mutex
	rng      *rand.Rand
	now      time.Time
	patterns []namePattern
}

type namePattern struct {
	re       *regexp.Regexp
	generate func(g *Generator, lower string) string
}

// NewGenerator creates a generator. A zero seed uses the current time.
func NewGenerator(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	g := &Generator{
		rng: rand.New(rand.NewSource(seed)),
		now: time.Now(),
	}
	g.patterns = []namePattern{
		{regexp.MustCompile(`(?i)e?mail`), (*Generator).email},
		{regexp.MustCompile(`(?i)(phone|fax|mobile)`), (*Generator).phone},
		{regexp.MustCompile(`(?i)(date|time)`), (*Generator).date},
		{regexp.MustCompile(`(?i)(number|count|pages|volume|issue|quantity)`), (*Generator).number},
		{regexp.MustCompile(`(?i)(firstname|lastname|username|author|name)`), (*Generator).name},
		{regexp.MustCompile(`(?i)(address|street|city|zip|postal|state|country)`), (*Generator).address},
		{regexp.MustCompile(`(?i)(organization|institution|department|company)`), (*Generator).organization},
		{regexp.MustCompile(`(?i)(title|heading)`), (*Generator).title},
		{regexp.MustCompile(`(?i)(notes|comment|description|message|request)`), (*Generator).text},
		{regexp.MustCompile(`(?i)(status|state)`), (*Generator).status},
	}
	return g
}

// Value generates a value for one field name.
func (g *Generator) Value(field string) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	lower := strings.ToLower(field)
	for _, p := range g.patterns {
		if p.re.MatchString(field) {
			return p.generate(g, lower)
		}
	}
	return "Sample " + field
}

// FillMissing sets a generated value on bag for every field that is absent
// and returns the names it filled. Present fields, even empty ones, are kept.
func (g *Generator) FillMissing(bag *FieldBag, fields []string) []string {
	var filled []string
	for _, f := range fields {
		if f == "" || bag.Has(f) {
			continue
		}
		bag.Set(f, g.Value(f))
		filled = append(filled, f)
	}
	return filled
}

func (g *Generator) pick(options ...string) string {
	return options[g.rng.Intn(len(options))]
}

func (g *Generator) email(string) string {
	return fmt.Sprintf("%s@%s",
		g.pick("jdoe", "asmith", "researcher", "patron", "mlee"),
		g.pick("example.com", "university.edu", "library.org"))
}

func (g *Generator) phone(string) string {
	return fmt.Sprintf("555-%04d", g.rng.Intn(10000))
}

func (g *Generator) date(string) string {
	return g.now.AddDate(0, 0, -g.rng.Intn(365)).Format("2006-01-02")
}

func (g *Generator) number(lower string) string {
	if strings.Contains(lower, "pages") {
		start := g.rng.Intn(100) + 1
		return fmt.Sprintf("%d-%d", start, start+g.rng.Intn(50)+1)
	}
	return fmt.Sprintf("%d", g.rng.Intn(1000)+1)
}

func (g *Generator) name(lower string) string {
	first := g.pick("John", "Jane", "Alex", "Taylor", "Jordan", "Casey", "Morgan", "Riley")
	last := g.pick("Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis")

	switch {
	case strings.Contains(lower, "first"):
		return first
	case strings.Contains(lower, "last"):
		return last
	case strings.Contains(lower, "user"):
		return strings.ToLower(first[:1] + last)
	case strings.Contains(lower, "author"):
		return last + ", " + first
	}
	return first + " " + last
}

func (g *Generator) address(lower string) string {
	switch {
	case strings.Contains(lower, "city"):
		return g.pick("Anytown", "Springfield", "Riverside", "Fairview")
	case strings.Contains(lower, "zip"), strings.Contains(lower, "postal"):
		return fmt.Sprintf("%05d", g.rng.Intn(100000))
	case strings.Contains(lower, "state"):
		return g.pick("CA", "NY", "TX", "VA", "WA")
	case strings.Contains(lower, "country"):
		return "USA"
	}
	return fmt.Sprintf("%d %s", g.rng.Intn(9999)+1, g.pick("Main St", "Oak Ave", "College Rd", "Library Ln"))
}

func (g *Generator) organization(string) string {
	return g.pick("University Library", "State Archives", "Historical Society", "Research Institute")
}

func (g *Generator) title(string) string {
	return g.pick("Collected Letters", "Annual Report", "Field Notebook", "Photograph Album", "Meeting Minutes")
}

func (g *Generator) text(string) string {
	return g.pick(
		"Please pull the original materials.",
		"Needed for dissertation research.",
		"Handle with care.",
	)
}

func (g *Generator) status(string) string {
	return g.pick("Active", "Submitted", "In Progress", "Approved")
}
