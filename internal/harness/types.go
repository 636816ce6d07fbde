package harness

// Delivery is one batch received by a scenario subscription.
type Delivery struct {
	// Subscription is the subscription label: the target name, with
	// "/raw" appended for raw subscriptions.
	Subscription string `json:"subscription"`

	// Batch counts up from 1 per subscription.
	Batch int `json:"batch"`

	// Patches holds the encoded patches (ir.EncodePatch or the typed
	// encoders) in delivery order.
	Patches []map[string]any `json:"patches"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates every assertion held.
	Pass bool `json:"pass"`

	// Deliveries lists every batch received, across all subscriptions, in
	// the order it was delivered.
	Deliveries []Delivery `json:"deliveries"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:       true,
		Deliveries: []Delivery{},
		Errors:     []string{},
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// toCanonicalMap converts deliveries to the tree ir.MarshalCanonical
// accepts.
func toCanonicalMap(name string, deliveries []Delivery) map[string]any {
	list := make([]any, len(deliveries))
	for i, d := range deliveries {
		patches := make([]any, len(d.Patches))
		for j, p := range d.Patches {
			patches[j] = p
		}
		list[i] = map[string]any{
			"subscription": d.Subscription,
			"batch":        d.Batch,
			"patches":      patches,
		}
	}
	return map[string]any{
		"scenario":   name,
		"deliveries": list,
	}
}
