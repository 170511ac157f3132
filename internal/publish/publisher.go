// Package publish delivers a finished run to its platforms. Each platform
// implements Publisher; the dispatcher isolates failures so one platform
// never blocks the others.
package publish

import (
	"context"
	"fmt"
	"log"

	"github.com/lofiradio/automation/internal/model"
)

// Request carries the finished artifacts of one run.
type Request struct {
	Slot          model.Slot
	Audio         []byte
	Cover         []byte
	Video         []byte
	Metadata      *model.Metadata
	AudioDuration float64
}

// Publisher delivers one run to one platform.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, req *Request) (remoteID string, err error)
}

// Dispatch publishes to every platform in order. A failure, including a
// panic inside a publisher, is recorded in that platform's result and the
// remaining platforms still run.
func Dispatch(ctx context.Context, publishers []Publisher, req *Request) []model.PublishResult {
	results := make([]model.PublishResult, 0, len(publishers))
	for _, p := range publishers {
		result := publishOne(ctx, p, req)
		if !result.Success {
			log.Printf("[publish] %s failed: %s", result.Platform, result.Error)
		} else {
			log.Printf("[publish] %s succeeded: %s", result.Platform, result.RemoteID)
		}
		results = append(results, result)
	}
	return results
}

func publishOne(ctx context.Context, p Publisher, req *Request) (result model.PublishResult) {
	result.Platform = p.Name()
	defer func() {
		if r := recover(); r != nil {
			result.Success = false
			result.Error = fmt.Sprintf("panic during publish: %v", r)
		}
	}()

	id, err := p.Publish(ctx, req)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Success = true
	result.RemoteID = id
	return result
}
