package evidence

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/ralphloop/ralphloop/internal/statefile"
)

const documentFile = ".ralph_evidence.json"

// Collector runs the six verification gates against the repository at
// Dir and aggregates their outcome into a Document.
type Collector struct {
	Dir       string
	SkipTests bool
	SkipCLI   bool

	// SessionCreatedAt is threaded in rather than read from the document
	// mid-run so a gate never has to reach back into collector state
	// that isn't its own.
	SessionCreatedAt time.Time
}

// New returns a Collector rooted at dir.
func New(dir string) *Collector {
	return &Collector{Dir: dir}
}

type gateFunc func(*Collector) GateRecord

func (c *Collector) gateFuncs() map[string]gateFunc {
	return map[string]gateFunc{
		GateTestsPassed:         (*Collector).gateTestsPassed,
		GateDocumentationExists: (*Collector).gateDocumentationExists,
		GateCLIFunctional:       (*Collector).gateCLIFunctional,
		GateFilesModified:       (*Collector).gateFilesModified,
		GateCommitsMade:         (*Collector).gateCommitsMade,
		GateFixPlanComplete:     (*Collector).gateFixPlanComplete,
	}
}

// Run executes every gate in GateOrder and persists the aggregated
// Document. Each gate runs in its own fault domain: a panic inside a
// gate probe is caught and recorded as FAILED with a diagnostic, and
// never aborts the remaining gates. overall_status is recomputed via a
// deferred writer so that even if something outside the per-gate
// recovery panics, the document on disk never keeps a stale
// exit_allowed: true from a prior run.
func (c *Collector) Run(loopNumber int) (doc Document, err error) {
	doc = c.loadOrInit()
	doc.LoopNumber = loopNumber
	c.SessionCreatedAt = doc.CreatedAt

	defer func() {
		doc.OverallStatus = recompute(doc.VerificationGates)
		doc.LastUpdated = time.Now().UTC()
		if saveErr := statefile.RetryOnce(func() error {
			return statefile.Save(c.path(), doc)
		}); saveErr != nil && err == nil {
			err = saveErr
		}
		if r := recover(); r != nil && err == nil {
			err = fmt.Errorf("evidence collector: unrecovered panic: %v", r)
		}
	}()

	funcs := c.gateFuncs()
	for _, name := range GateOrder {
		doc.VerificationGates[name] = c.runGate(name, funcs[name])
	}

	return doc, nil
}

// runGate isolates one gate's fault domain so a panicking probe cannot
// abort the rest of the collector.
func (c *Collector) runGate(name string, fn gateFunc) (record GateRecord) {
	defer func() {
		if r := recover(); r != nil {
			record = GateRecord{
				Status:     StatusFailed,
				VerifiedAt: time.Now().UTC(),
				Evidence: map[string]any{
					"panic": fmt.Sprintf("%v", r),
					"gate":  name,
				},
			}
		}
	}()
	return fn(c)
}

// Status returns the current Document without running any gates.
func (c *Collector) Status() Document {
	return c.loadOrInit()
}

// IsExitAllowed reports the collector's last-persisted verdict.
func (c *Collector) IsExitAllowed() bool {
	return c.loadOrInit().OverallStatus.ExitAllowed
}

func (c *Collector) loadOrInit() Document {
	var doc Document
	if err := statefile.Load(c.path(), &doc); err == nil {
		if doc.VerificationGates == nil {
			doc.VerificationGates = make(map[string]GateRecord)
		}
		for _, name := range GateOrder {
			if _, ok := doc.VerificationGates[name]; !ok {
				doc.VerificationGates[name] = GateRecord{Status: StatusPending}
			}
		}
		return doc
	}
	return freshDocument(uuid.NewString(), time.Now().UTC())
}

func (c *Collector) path() string {
	return filepath.Join(c.Dir, documentFile)
}
