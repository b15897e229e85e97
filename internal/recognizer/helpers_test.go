package recognizer

import (
	"context"

	"github.com/nguyentantai21042004/chart-flow/internal/models"
)

var testKey = models.SessionKey{OwnerID: "o", PatientID: "p", SessionID: "s1"}

type recordingCommitter struct {
	appended chan string
}

func (c *recordingCommitter) AppendMessage(_ context.Context, key models.SessionKey, text string) (*models.Message, error) {
	c.appended <- text
	return &models.Message{ID: "m", SessionID: key.SessionID, Text: text}, nil
}
