package grpc

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/bibbank/vulntriage/internal/application/dto"
	"github.com/bibbank/vulntriage/internal/application/usecase"
	"github.com/bibbank/vulntriage/internal/domain/errs"
)

// Compile-time assertion that TriageServiceHandler implements TriageServiceServer.
var _ TriageServiceServer = (*TriageServiceHandler)(nil)

// TriageServiceHandler implements the gRPC TriageServiceServer interface.
type TriageServiceHandler struct {
	UnimplementedTriageServiceServer
	scoreDescription *usecase.ScoreDescription
	scoreLatest      *usecase.ScoreLatest
	getRecord        *usecase.GetRecord
	getMeta          *usecase.GetMeta
	logger           *slog.Logger
}

// NewTriageServiceHandler creates a new gRPC handler.
func NewTriageServiceHandler(
	scoreDescription *usecase.ScoreDescription,
	scoreLatest *usecase.ScoreLatest,
	getRecord *usecase.GetRecord,
	getMeta *usecase.GetMeta,
	logger *slog.Logger,
) *TriageServiceHandler {
	return &TriageServiceHandler{
		scoreDescription: scoreDescription,
		scoreLatest:      scoreLatest,
		getRecord:        getRecord,
		getMeta:          getMeta,
		logger:           logger,
	}
}

// Proto-aligned request/response message types.

// ScoreDescriptionRequest represents the proto ScoreDescriptionRequest message.
type ScoreDescriptionRequest struct {
	Description string `json:"description"`
}

// ScoreDescriptionResponse represents the proto ScoreDescriptionResponse message.
type ScoreDescriptionResponse struct {
	Risk         string  `json:"risk"`
	Confidence   float64 `json:"confidence"`
	AnomalyScore float64 `json:"anomaly_score"`
	Anomalous    bool    `json:"anomalous"`
}

// ScoreLatestRequest represents the proto ScoreLatestRequest message.
// Zero values take the REST defaults.
type ScoreLatestRequest struct {
	DaysBack   int32 `json:"days_back"`
	MaxResults int32 `json:"max_results"`
}

// PredictionMsg represents the proto Prediction message.
type PredictionMsg struct {
	CVEID      string  `json:"cve_id"`
	Risk       string  `json:"risk"`
	Confidence float64 `json:"confidence"`
	Anomalous  bool    `json:"anomalous"`
}

// FailedRecordMsg represents the proto FailedRecord message.
type FailedRecordMsg struct {
	CVEID  string `json:"cve_id"`
	Stage  string `json:"stage"`
	Reason string `json:"reason"`
}

// ScoreLatestResponse represents the proto ScoreLatestResponse message.
type ScoreLatestResponse struct {
	Predictions []*PredictionMsg   `json:"predictions"`
	Failed      []*FailedRecordMsg `json:"failed"`
	Fetched     int32              `json:"fetched"`
}

// ScoredRecordMsg represents the proto ScoredRecord message. Times are RFC 3339.
type ScoredRecordMsg struct {
	CVEID         string  `json:"cve_id"`
	Risk          string  `json:"risk"`
	AnomalyStatus string  `json:"anomaly_status"`
	Published     string  `json:"published,omitempty"`
	ScoredAt      string  `json:"scored_at"`
	Confidence    float64 `json:"confidence"`
	AnomalyScore  float64 `json:"anomaly_score"`
	Anomalous     bool    `json:"anomalous"`
}

// GetRecordRequest represents the proto GetRecordRequest message.
type GetRecordRequest struct {
	CVEID string `json:"cve_id"`
}

// GetRecordResponse represents the proto GetRecordResponse message.
type GetRecordResponse struct {
	Record *ScoredRecordMsg `json:"record"`
}

// ListRecordsRequest represents the proto ListRecordsRequest message.
type ListRecordsRequest struct {
	Limit int32 `json:"limit"`
}

// ListRecordsResponse represents the proto ListRecordsResponse message.
type ListRecordsResponse struct {
	Records []*ScoredRecordMsg `json:"records"`
}

// GetMetaRequest represents the proto GetMetaRequest message.
type GetMetaRequest struct{}

// TierMsg represents the proto Tier message.
type TierMsg struct {
	Name      string `json:"name"`
	Threshold string `json:"threshold"`
}

// ArtifactMsg represents the proto Artifact message.
type ArtifactMsg struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// GetMetaResponse represents the proto GetMetaResponse message.
type GetMetaResponse struct {
	ModelName  string         `json:"model_name"`
	Version    string         `json:"version"`
	RiskLevels []string       `json:"risk_levels"`
	Tiers      []*TierMsg     `json:"tiers"`
	Artifacts  []*ArtifactMsg `json:"artifacts"`
	Features   []string       `json:"features"`
}

// ScoreDescription handles a single-description scoring request.
func (h *TriageServiceHandler) ScoreDescription(ctx context.Context, req *ScoreDescriptionRequest) (*ScoreDescriptionResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if err := dto.Validate(dto.ScoreRequest{Description: req.Description}); err != nil {
		return nil, h.toStatus(ctx, "score description", err)
	}

	result, err := h.scoreDescription.Execute(ctx, req.Description)
	if err != nil {
		return nil, h.toStatus(ctx, "score description", err)
	}

	return &ScoreDescriptionResponse{
		Risk:         result.Risk,
		Confidence:   result.Confidence,
		AnomalyScore: result.AnomalyScore,
		Anomalous:    result.Anomalous,
	}, nil
}

// ScoreLatest handles a batch scoring request over the recent feed window.
func (h *TriageServiceHandler) ScoreLatest(ctx context.Context, req *ScoreLatestRequest) (*ScoreLatestResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	batchReq := dto.BatchRequest{
		DaysBack:   int(req.DaysBack),
		MaxResults: int(req.MaxResults),
	}
	if batchReq.DaysBack == 0 {
		batchReq.DaysBack = dto.DefaultDaysBack
	}
	if batchReq.MaxResults == 0 {
		batchReq.MaxResults = dto.DefaultMaxResults
	}

	result, err := h.scoreLatest.Execute(ctx, batchReq)
	if err != nil {
		return nil, h.toStatus(ctx, "score latest", err)
	}

	resp := &ScoreLatestResponse{
		Predictions: make([]*PredictionMsg, 0, len(result.Predictions)),
		Failed:      make([]*FailedRecordMsg, 0, len(result.Failed)),
		Fetched:     int32(result.Fetched),
	}
	for _, p := range result.Predictions {
		resp.Predictions = append(resp.Predictions, &PredictionMsg{
			CVEID:      p.CVEID,
			Risk:       p.Risk,
			Confidence: p.Confidence,
			Anomalous:  p.Anomalous,
		})
	}
	for _, f := range result.Failed {
		resp.Failed = append(resp.Failed, &FailedRecordMsg{CVEID: f.ID, Stage: f.Stage, Reason: f.Reason})
	}
	return resp, nil
}

// GetRecord handles a stored score lookup.
func (h *TriageServiceHandler) GetRecord(ctx context.Context, req *GetRecordRequest) (*GetRecordResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	result, err := h.getRecord.Execute(ctx, req.CVEID)
	if err != nil {
		return nil, h.toStatus(ctx, "get record", err)
	}
	return &GetRecordResponse{Record: toRecordMsg(result)}, nil
}

// ListRecords handles a recent-history request.
func (h *TriageServiceHandler) ListRecords(ctx context.Context, req *ListRecordsRequest) (*ListRecordsResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	results, err := h.getRecord.List(ctx, int(req.Limit))
	if err != nil {
		return nil, h.toStatus(ctx, "list records", err)
	}

	resp := &ListRecordsResponse{Records: make([]*ScoredRecordMsg, 0, len(results))}
	for _, r := range results {
		resp.Records = append(resp.Records, toRecordMsg(r))
	}
	return resp, nil
}

// GetMeta returns the model metadata.
func (h *TriageServiceHandler) GetMeta(_ context.Context, _ *GetMetaRequest) (*GetMetaResponse, error) {
	meta := h.getMeta.Execute()

	resp := &GetMetaResponse{
		ModelName:  meta.ModelName,
		Version:    meta.Version,
		RiskLevels: meta.RiskLevels,
		Features:   meta.Features,
		Tiers:      make([]*TierMsg, 0, len(meta.Tiers)),
		Artifacts:  make([]*ArtifactMsg, 0, len(meta.Artifacts)),
	}
	for _, t := range meta.Tiers {
		resp.Tiers = append(resp.Tiers, &TierMsg{Name: t.Name, Threshold: t.Threshold})
	}
	for _, a := range meta.Artifacts {
		resp.Artifacts = append(resp.Artifacts, &ArtifactMsg{Name: a.Name, Version: a.Version})
	}
	return resp, nil
}

func toRecordMsg(r dto.ScoredRecordResponse) *ScoredRecordMsg {
	msg := &ScoredRecordMsg{
		CVEID:         r.CVEID,
		Risk:          r.Risk,
		AnomalyStatus: r.AnomalyStatus,
		ScoredAt:      r.ScoredAt.Format(time.RFC3339),
		Confidence:    r.Confidence,
		AnomalyScore:  r.AnomalyScore,
		Anomalous:     r.Anomalous,
	}
	if r.Published != nil {
		msg.Published = r.Published.Format(time.RFC3339)
	}
	return msg
}

// toStatus maps the error taxonomy onto gRPC codes. Internal failures are
// logged and returned without detail.
func (h *TriageServiceHandler) toStatus(ctx context.Context, op string, err error) error {
	var failure *errs.ScoringFailure
	switch {
	case errors.Is(err, errs.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, errs.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, errs.ErrUpstreamUnavailable):
		h.logger.WarnContext(ctx, op+" failed", slog.String("error", err.Error()))
		return status.Error(codes.Unavailable, "vulnerability feed unavailable")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")
	case errors.As(err, &failure):
		h.logger.ErrorContext(ctx, op+" failed",
			slog.String("stage", failure.Stage),
			slog.String("error", err.Error()),
		)
		return status.Errorf(codes.Internal, "scoring failed at %s", failure.Stage)
	default:
		h.logger.ErrorContext(ctx, op+" failed", slog.String("error", err.Error()))
		return status.Error(codes.Internal, "internal error")
	}
}
