package controllers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"document-audio-pipeline/application/ports/inbound"
	"document-audio-pipeline/application/ports/outbound"
	"document-audio-pipeline/channel_utils"
	"document-audio-pipeline/infrastructure/gin_interface/dto"
)

type DocumentEventsController interface {
	HandleEvents(c *gin.Context)
	RegisterRoutes(g *gin.Engine)
}

type documentEventsController struct {
	logger      outbound.LoggerPort
	workerPool  outbound.TaskDispatcher
	coordinator inbound.PipelineCoordinatorPort
}

func NewDocumentEventsController(
	logger outbound.LoggerPort,
	workerPool outbound.TaskDispatcher,
	coordinator inbound.PipelineCoordinatorPort,
) DocumentEventsController {
	return &documentEventsController{
		logger:      logger,
		workerPool:  workerPool,
		coordinator: coordinator,
	}
}

// HandleEvents converts every record of an object-created batch. Records run
// concurrently on the worker pool; the response reports one outcome per
// record regardless of individual failures, since the sender only needs an
// acknowledgement to stop redelivering.
func (d *documentEventsController) HandleEvents(c *gin.Context) {
	var batch dto.StorageEventBatch
	newCtx, cancel := context.WithCancel(c)
	defer cancel()
	if err := c.ShouldBindJSON(&batch); err != nil {
		err = c.AbortWithError(400, err)
		if err != nil {
			d.logger.Error(err, "failed to abort with error")
		}
		return
	}

	outcomeChannels := make([]<-chan dto.RecordOutcome, 0, len(batch.Records))
	for _, record := range batch.Records {
		rec := record
		deliveryID := uuid.NewString()
		out := make(chan dto.RecordOutcome, 1)
		outcomeChannels = append(outcomeChannels, out)

		err := d.workerPool.Submit(func() {
			defer close(out)
			out <- d.convertRecord(newCtx, deliveryID, rec)
		})
		if err != nil {
			close(out)
			d.logger.Error(err, "failed to submit record conversion")
			if abortErr := c.AbortWithError(500, err); abortErr != nil {
				d.logger.Error(abortErr, "failed to abort with error")
			}
			return
		}
	}

	merged := channel_utils.MergeChannels(outcomeChannels...)

	response := dto.EventsResponse{Outcomes: make([]dto.RecordOutcome, 0, len(batch.Records))}
	for outcome := range merged {
		response.Outcomes = append(response.Outcomes, outcome)
	}

	c.JSON(200, response)
}

func (d *documentEventsController) convertRecord(ctx context.Context, deliveryID string, record dto.StorageEventRecord) dto.RecordOutcome {
	outcome := dto.RecordOutcome{
		DeliveryID: deliveryID,
		SourceKey:  record.Key,
	}

	res, err := d.coordinator.Convert(ctx, inbound.ConvertDocumentParams{
		DeliveryID:  deliveryID,
		SourceKey:   record.Key,
		Fingerprint: record.Fingerprint,
	})
	if err != nil {
		d.logger.ErrorWithFields(err, "record conversion failed", map[string]interface{}{
			"delivery_id": deliveryID,
			"source_key":  record.Key,
		})
		outcome.Error = err.Error()
	}

	outcome.JobID = res.JobID
	outcome.State = string(res.State)
	outcome.OutputKey = res.OutputKey
	outcome.ChunkCount = res.ChunkCount
	outcome.Deduplicated = res.Deduplicated
	outcome.FailureReason = string(res.FailureReason)

	return outcome
}

func (d *documentEventsController) RegisterRoutes(g *gin.Engine) {
	g.POST("/events", d.HandleEvents)
}
