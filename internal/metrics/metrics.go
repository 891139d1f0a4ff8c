// Package metrics exposes the prometheus counters for ledger activity and
// workflow transitions.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LedgerDebits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_debits_total",
		Help: "Ledger debit attempts by outcome.",
	}, []string{"outcome"}) // ok | insufficient

	LedgerCredits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_credits_total",
		Help: "Successful ledger credits.",
	})

	WorkflowTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "workflow_transitions_total",
		Help: "Successful workflow state transitions.",
	}, []string{"workflow", "to"})
)
