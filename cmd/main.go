package main

import (
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/polly"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog/log"

	"document-audio-pipeline/application/ports/outbound"
	"document-audio-pipeline/application/services"
	"document-audio-pipeline/config"
	"document-audio-pipeline/domain"
	"document-audio-pipeline/infrastructure/adapters"
	"document-audio-pipeline/infrastructure/gin_interface/controllers"
)

func main() {
	pollyConfig, err := config.GetPollyConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get polly config")
	}

	s3Config, err := config.GetS3Config()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get s3 config")
	}

	pipelineConfig, err := config.GetPipelineConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get pipeline config")
	}

	zeroLogger := adapters.NewZerologWrapper()

	panicHandler := func(p interface{}) {
		zeroLogger.Error(fmt.Errorf("%v", p), "Panic in worker pool")
	}

	workerPool, err := ants.NewPool(120, ants.WithPanicHandler(panicHandler))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create worker pool")
	}
	defer workerPool.Release()

	sess := session.Must(session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
		Config:            aws.Config{Region: aws.String(s3Config.Region)},
	}))

	s3Client := s3.New(sess)
	pollyClient := polly.New(sess)

	var registry outbound.JobRegistryPort
	if os.Getenv("DYNAMO_TABLE_NAME") != "" {
		dynamoConfig, err := config.GetDynamoConfig()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to get dynamo config")
		}
		registry = adapters.NewDynamoJobRegistry(zeroLogger, dynamodb.New(sess), dynamoConfig)
	} else {
		zeroLogger.Warn("DYNAMO_TABLE_NAME not set, using in-process job registry; duplicates are only absorbed within this instance")
		registry = adapters.NewMemoryJobRegistry()
	}

	documentStore := adapters.NewS3DocumentStore(s3Client, s3Config, zeroLogger)
	artifactStore := adapters.NewS3ArtifactStore(s3Client, s3Config, zeroLogger)
	synthesizer := adapters.NewPollySynthesizer(pollyClient, zeroLogger)

	voice := domain.VoiceConfig{
		VoiceID:      pollyConfig.VoiceID,
		Engine:       pollyConfig.Engine,
		OutputFormat: pollyConfig.OutputFormat,
		SampleRate:   pollyConfig.SampleRate,
	}

	admissionController := services.NewAdmissionController(registry, zeroLogger)
	segmenter := services.NewSegmenter(zeroLogger)
	synthesisExecutor := services.NewSynthesisExecutor(synthesizer, zeroLogger, pipelineConfig)
	assembler := services.NewAssembler(zeroLogger)

	coordinator := services.NewPipelineCoordinator(zeroLogger, documentStore, artifactStore,
		admissionController, segmenter, synthesisExecutor, assembler, voice, pipelineConfig)

	eventsController := controllers.NewDocumentEventsController(zeroLogger, workerPool, coordinator)

	router := gin.Default()

	err = router.SetTrustedProxies(nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set trusted proxies!")
	}

	eventsController.RegisterRoutes(router)

	err = router.Run(":8080")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start server!")
	}
}
