// Package metrics exposes the Prometheus instruments the services update.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LedgerPostings = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfin_ledger_postings_total",
		Help: "Ledger entries posted, by direction and source kind.",
	}, []string{"direction", "source_kind"})

	WorkflowTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfin_workflow_transitions_total",
		Help: "Workflow transitions applied, by subject and target status.",
	}, []string{"subject", "status"})

	TallyEntries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfin_tally_entries_total",
		Help: "Bookkeeping records written, by entry type.",
	}, []string{"entry_type"})

	UsageClosed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfin_usage_records_closed_total",
		Help: "Equipment usage records closed, by contract type.",
	}, []string{"contract_type"})
)
