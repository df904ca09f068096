package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Value flows counted by LamportsMoved.
const (
	FlowDonation   = "donation"
	FlowWithdrawal = "withdrawal"
	FlowFee        = "fee"
	FlowGenesis    = "genesis"
)

var (
	// InstructionDuration tracks the latency of ledger instructions
	InstructionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "crowdfund_instruction_duration_seconds",
			Help: "Duration of ledger instructions in seconds",
			Buckets: []float64{
				0.001, // 1ms
				0.005, // 5ms
				0.01,  // 10ms
				0.025, // 25ms
				0.05,  // 50ms
				0.1,   // 100ms
				0.25,  // 250ms
				0.5,   // 500ms
				1.0,   // 1s
				2.5,   // 2.5s
				5.0,   // 5s
			},
		},
		[]string{"instruction", "status"}, // status is success or failed
	)

	// LamportsMoved counts lamports transferred by committed instructions
	LamportsMoved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crowdfund_lamports_moved_total",
			Help: "Lamports transferred by committed instructions",
		},
		[]string{"kind"},
	)

	// RPCRejections counts requests refused before reaching the ledger
	RPCRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crowdfund_rpc_rejections_total",
			Help: "Instruction requests rejected by signature verification",
		},
		[]string{"procedure", "reason"},
	)
)

// RecordInstructionDuration records the duration of a ledger instruction
func RecordInstructionDuration(instruction, status string, duration float64) {
	InstructionDuration.WithLabelValues(instruction, status).Observe(duration)
}

// RecordLamportsMoved adds lamports to the counter for kind
func RecordLamportsMoved(kind string, lamports uint64) {
	LamportsMoved.WithLabelValues(kind).Add(float64(lamports))
}

// RecordRejection counts a request refused before execution
func RecordRejection(procedure, reason string) {
	RPCRejections.WithLabelValues(procedure, reason).Inc()
}
