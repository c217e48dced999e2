/*
Package pipeline runs the traced five-stage regression pipeline.

One run produces one trace:

	ml_pipeline
	├── data_loading
	├── data_preprocessing
	├── model_training
	├── model_evaluation
	└── export_results

Stages run one after another. Each stage span carries duration_ms plus its
own attributes, and the root span collects the run ID and final metrics. A
failing stage marks both its own span and the root as errored and stops the
run.
*/
package pipeline
