package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	NameCreditTransactions = "credit_transactions"
	NameCreditRejections   = "credit_rejections"
	NameGateDecisions      = "gate_decisions"
	LabelKind              = "kind"
	LabelReason            = "reason"
	LabelDecision          = "decision"
)

var CreditTransactions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      NameCreditTransactions,
		Help:      "Committed credit transactions by kind",
		Namespace: Namespace,
	},
	[]string{LabelKind},
)

var CreditRejections = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      NameCreditRejections,
		Help:      "Rejected debits by reason",
		Namespace: Namespace,
	},
	[]string{LabelReason},
)

var GateDecisions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      NameGateDecisions,
		Help:      "Access gate decisions",
		Namespace: Namespace,
	},
	[]string{LabelDecision},
)
