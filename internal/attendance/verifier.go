package attendance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/Liyanipatel27/attendance-new/internal/metrics"
)

// Verifier calls the external face-recognition service to confirm that a
// captured image belongs to the claimed student.
type Verifier struct {
	client *http.Client
	url    string
	logger zerolog.Logger
}

type verifyRequest struct {
	Image     string `json:"image"`
	StudentID string `json:"studentId"`
}

type verifyResponse struct {
	Success   bool   `json:"success"`
	StudentID string `json:"studentId"`
	Message   string `json:"message,omitempty"`
}

// NewVerifier builds a verifier against the given service URL.
func NewVerifier(url string, timeout time.Duration, logger zerolog.Logger) *Verifier {
	return &Verifier{
		client: &http.Client{Timeout: timeout},
		url:    url,
		logger: logger.With().Str("component", "verifier").Logger(),
	}
}

// Verify submits the image for the student and reports whether the service
// matched it. A transport or decode failure is returned as an error so the
// caller can distinguish "no match" from "service unavailable".
func (v *Verifier) Verify(ctx context.Context, studentID, image string) (bool, error) {
	body, err := json.Marshal(verifyRequest{Image: image, StudentID: studentID})
	if err != nil {
		return false, fmt.Errorf("encoding verify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.url, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("building verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		metrics.VerificationCalls.WithLabelValues("error").Inc()
		return false, fmt.Errorf("calling verification service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		metrics.VerificationCalls.WithLabelValues("error").Inc()
		return false, fmt.Errorf("verification service returned status %d", resp.StatusCode)
	}

	var out verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		metrics.VerificationCalls.WithLabelValues("error").Inc()
		return false, fmt.Errorf("decoding verify response: %w", err)
	}

	// The service echoes the matched student; a mismatch means the face
	// belongs to somebody else even when Success is set.
	matched := out.Success && out.StudentID == studentID
	if matched {
		metrics.VerificationCalls.WithLabelValues("match").Inc()
	} else {
		metrics.VerificationCalls.WithLabelValues("mismatch").Inc()
		v.logger.Debug().Str("student_id", studentID).Str("message", out.Message).Msg("face verification rejected")
	}
	return matched, nil
}
