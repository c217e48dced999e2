package pipeline

// Span names, in execution order after the root.
const (
	SpanPipeline      = "ml_pipeline"
	SpanLoading       = "data_loading"
	SpanPreprocessing = "data_preprocessing"
	SpanTraining      = "model_training"
	SpanEvaluation    = "model_evaluation"
	SpanExport        = "export_results"
)

// Attribute keys.
const (
	AttrPipelineType  = "pipeline.type"
	AttrPipelineModel = "pipeline.model"
	AttrRunID         = "pipeline.run_id"
	AttrPipelineMSE   = "pipeline.mse"
	AttrPipelineRMSE  = "pipeline.rmse"

	AttrDataRows    = "data.rows"
	AttrDataColumns = "data.columns"
	AttrTrainSize   = "train.size"
	AttrTestSize    = "test.size"
	AttrTestRatio   = "test.ratio"
	AttrModelType   = "model.type"
	AttrFeatures    = "model.features"
	AttrMSE         = "metrics.mse"
	AttrRMSE        = "metrics.rmse"
	AttrR2          = "metrics.r2"
	AttrFormat      = "export.format"
	AttrPath        = "export.path"
)

// Root span values.
const (
	PipelineType  = "supervised_learning"
	PipelineModel = "linear_regression"
)

// StageNames returns the stage span names in execution order.
func StageNames() []string {
	return []string{SpanLoading, SpanPreprocessing, SpanTraining, SpanEvaluation, SpanExport}
}
