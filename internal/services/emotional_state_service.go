package services

import (
	"context"
	"strings"

	"github.com/markdave123-py/ChatbotX/internal/core"
	"github.com/markdave123-py/ChatbotX/internal/models"
)

// SentimentClassifier is satisfied by AdvisoryService.
type SentimentClassifier interface {
	ClassifySentiment(ctx context.Context, text string) models.Sentiment
}

var _ SentimentClassifier = (*AdvisoryService)(nil)

type EmotionalStateService struct {
	db         core.DbClient
	classifier SentimentClassifier
}

func NewEmotionalStateService(db core.DbClient, classifier SentimentClassifier) *EmotionalStateService {
	return &EmotionalStateService{db: db, classifier: classifier}
}

// Latest returns nil without error when the user has no samples yet.
func (s *EmotionalStateService) Latest(ctx context.Context, userID string) (*models.EmotionalState, error) {
	return s.db.GetLatestEmotionalState(ctx, userID)
}

func (s *EmotionalStateService) Record(ctx context.Context, userID, sentiment string, confidence float64, notes *string) (*models.EmotionalState, error) {
	fields := map[string]string{}
	if !models.IsSentimentLabel(sentiment) {
		fields["sentiment"] = "oneof=optimistic neutral pessimistic"
	}
	if confidence < 0 || confidence > 1 {
		fields["confidence"] = "min=0,max=1"
	}
	if len(fields) > 0 {
		return nil, &core.ValidationError{Message: "Invalid emotional state data", Fields: fields}
	}

	return s.db.CreateEmotionalState(ctx, &models.EmotionalState{
		UserID:     userID,
		Sentiment:  sentiment,
		Confidence: confidence,
		Notes:      notes,
	})
}

// RecordFromText classifies text and stores the result with text as notes.
func (s *EmotionalStateService) RecordFromText(ctx context.Context, userID, text string) (*models.EmotionalState, models.Sentiment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, models.Sentiment{}, &core.ValidationError{
			Message: "Text is required",
			Fields:  map[string]string{"text": "required"},
		}
	}

	sent := s.classifier.ClassifySentiment(ctx, text)
	state, err := s.Record(ctx, userID, sent.Sentiment, sent.Confidence, &text)
	if err != nil {
		return nil, sent, err
	}
	return state, sent, nil
}
