package ports

// LikelihoodPort is what a host Bayesian sampler calls once per proposed
// parameter vector. Implementations must not retain or modify params.
type LikelihoodPort interface {
	LogLikelihood(params []float64) float64
}

// SnapshotPort receives named intermediate values (predicted observables,
// derived quantities) after an evaluation, for reporting layers.
type SnapshotPort interface {
	Publish(name string, value float64)
}
