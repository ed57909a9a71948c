package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/getcoachly/coachly/internal/models"
	"github.com/getcoachly/coachly/internal/providers/llm"
	"github.com/getcoachly/coachly/internal/providers/stt"
	pgrepo "github.com/getcoachly/coachly/internal/repositories/postgres"
	"github.com/getcoachly/coachly/internal/storage"
	"github.com/getcoachly/coachly/internal/utils"
)

const analysisPrompt = `You are a sales call analyst. Analyze this call transcript and respond with only a JSON object:
{
  "heat_score": 0-100 or null if the deal temperature cannot be judged,
  "framework_scores": {
    "discovery": 0-10 or null,
    "objection_handling": 0-10 or null,
    "value_articulation": 0-10 or null,
    "closing_technique": 0-10 or null
  },
  "behavioral_metrics": {"talk_ratio": 0-1, "question_count": n},
  "summary": "2-3 sentences",
  "strengths": ["..."],
  "improvements": ["..."]
}
Score only what the transcript supports; use null for anything else.

Transcript:
%s`

type UploadCallInput struct {
	RepID       string
	CompanyName string
	ContactName string
	CallDate    time.Time

	// Either a transcript or an uploaded file (text or audio).
	Transcript string
	File       io.Reader
	FileName   string
	FileSize   int
	MimeType   string
}

type AnalysisService interface {
	// UploadAndAnalyze ingests a call (transcribing audio when needed), runs
	// the LLM analysis, and persists the analyzed call.
	UploadAndAnalyze(ctx context.Context, userID string, in UploadCallInput) (*models.CallAnalysis, error)
	Get(ctx context.Context, id string) (*models.CallAnalysis, error)
	ListByRep(ctx context.Context, repID string, limit int) ([]models.CallAnalysis, error)
	Delete(ctx context.Context, id string) error
	// DownloadURL mints a short-lived link to the stored recording or
	// transcript file of a call.
	DownloadURL(ctx context.Context, id string) (string, error)
}

type analysisService struct {
	analyses    pgrepo.AnalysisRepository
	files       pgrepo.TranscriptFileRepository
	uploader    storage.Uploader
	signer      storage.Signer
	transcriber stt.Provider
	provider    llm.Provider
	log         *logrus.Entry
}

func NewAnalysisService(
	analyses pgrepo.AnalysisRepository,
	files pgrepo.TranscriptFileRepository,
	uploader storage.Uploader,
	signer storage.Signer,
	transcriber stt.Provider,
	provider llm.Provider,
	log *logrus.Entry,
) AnalysisService {
	return &analysisService{
		analyses:    analyses,
		files:       files,
		uploader:    uploader,
		signer:      signer,
		transcriber: transcriber,
		provider:    provider,
		log:         log,
	}
}

func (s *analysisService) UploadAndAnalyze(ctx context.Context, userID string, in UploadCallInput) (*models.CallAnalysis, error) {
	const op = "AnalysisService.UploadAndAnalyze"

	if userID == "" || in.RepID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id and rep_id are required", nil)
	}
	if in.Transcript == "" && in.File == nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, "a transcript or file is required", nil)
	}

	callID := uuid.NewString()
	transcript := in.Transcript
	var recordingPath, transcriptPath string

	if in.File != nil {
		raw, err := io.ReadAll(in.File)
		if err != nil {
			return nil, utils.E(utils.CodeInvalidArgument, op, "failed to read uploaded file", err)
		}

		objectName := fmt.Sprintf("calls/%s/%s", callID, in.FileName)
		storedPath := objectName
		if s.uploader != nil {
			storedPath, err = s.uploader.Upload(ctx, objectName, in.MimeType, bytes.NewReader(raw))
			if err != nil {
				return nil, utils.E(utils.CodeUnavailable, op, "failed to store uploaded file", err)
			}
		}

		if strings.HasPrefix(in.MimeType, "audio/") {
			if s.transcriber == nil {
				return nil, utils.E(utils.CodeInvalidArgument, op, "audio uploads are not enabled", nil)
			}
			text, conf, err := s.transcriber.Transcribe(ctx, raw, "en-US")
			if err != nil {
				return nil, utils.E(utils.CodeUnavailable, op, "failed to transcribe recording", err)
			}
			s.log.WithFields(logrus.Fields{"call_id": callID, "confidence": conf}).Debug("recording transcribed")
			transcript = text
			recordingPath = storedPath
		} else {
			if transcript == "" {
				transcript = string(raw)
			}
			transcriptPath = storedPath
		}

		if err := s.files.Insert(ctx, &models.TranscriptFile{
			ID:         uuid.NewString(),
			UserID:     userID,
			CallID:     callID,
			FileName:   in.FileName,
			FilePath:   storedPath,
			FileSize:   in.FileSize,
			MimeType:   in.MimeType,
			UploadedAt: time.Now().UTC(),
		}); err != nil {
			return nil, utils.E(utils.CodeInternal, op, "failed to persist file metadata", err)
		}
	}

	if strings.TrimSpace(transcript) == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "transcript is empty", nil)
	}

	result, err := s.analyze(ctx, transcript)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, utils.E(utils.CodeTimeout, op, "call analysis timed out", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "call analysis failed", err)
	}

	callDate := in.CallDate
	if callDate.IsZero() {
		callDate = time.Now().UTC()
	}

	row := &models.CallAnalysis{
		ID:             callID,
		RepID:          in.RepID,
		UserID:         userID,
		CompanyName:    in.CompanyName,
		ContactName:    in.ContactName,
		Transcript:     transcript,
		RecordingPath:  recordingPath,
		TranscriptPath: transcriptPath,
		Result:         datatypes.JSON(result),
		CallDate:       callDate,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.analyses.Insert(ctx, row); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to persist analysis", err)
	}
	return row, nil
}

func (s *analysisService) analyze(ctx context.Context, transcript string) (json.RawMessage, error) {
	text, err := s.provider.Complete(ctx, fmt.Sprintf(analysisPrompt, transcript))
	if err != nil {
		return nil, err
	}

	raw := utils.ExtractJSONBlock(text)
	var parsed models.AnalysisResult
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("parse analysis result: %w", err)
	}

	// re-marshal so only known fields are stored
	return json.Marshal(parsed)
}

func (s *analysisService) Get(ctx context.Context, id string) (*models.CallAnalysis, error) {
	const op = "AnalysisService.Get"

	if id == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "id is required", nil)
	}
	row, err := s.analyses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "analysis not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get analysis", err)
	}
	return row, nil
}

func (s *analysisService) ListByRep(ctx context.Context, repID string, limit int) ([]models.CallAnalysis, error) {
	const op = "AnalysisService.ListByRep"

	if repID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "rep_id is required", nil)
	}
	rows, err := s.analyses.ListByRep(ctx, repID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list analyses", err)
	}
	return rows, nil
}

func (s *analysisService) DownloadURL(ctx context.Context, id string) (string, error) {
	const op = "AnalysisService.DownloadURL"

	if s.signer == nil {
		return "", utils.E(utils.CodeUnavailable, op, "file storage is not configured", nil)
	}

	row, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}

	object := row.RecordingPath
	if object == "" {
		object = row.TranscriptPath
	}
	if object == "" {
		return "", utils.E(utils.CodeNotFound, op, "call has no stored file", nil)
	}

	url, err := s.signer.SignedGetURL(ctx, object, 15*time.Minute)
	if err != nil {
		return "", utils.E(utils.CodeUnavailable, op, "failed to sign download url", err)
	}
	return url, nil
}

func (s *analysisService) Delete(ctx context.Context, id string) error {
	const op = "AnalysisService.Delete"

	if id == "" {
		return utils.E(utils.CodeInvalidArgument, op, "id is required", nil)
	}
	if err := s.analyses.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "analysis not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to delete analysis", err)
	}
	return nil
}
