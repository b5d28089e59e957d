package http

import (
	"github.com/taskflow-api/internal/application/verification"
	"github.com/taskflow-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/taskflow-api/internal/infrastructure/jwt"
	s3infra "github.com/taskflow-api/internal/infrastructure/s3"
	"github.com/taskflow-api/internal/infrastructure/smtp"
	"github.com/taskflow-api/internal/infrastructure/sns"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo         *dynamo.UserRepo
	ProjectRepo      *dynamo.ProjectRepo
	TaskRepo         *dynamo.TaskRepo
	NotificationRepo *dynamo.NotificationRepo
	AttachmentRepo   *dynamo.AttachmentRepo
	S3Store          *s3infra.Store
	// Mailer is normally the async dispatcher wrapping the SMTP mailer.
	Mailer      smtp.Mailer
	Publisher   sns.EventPublisher // nil when no SNS topic is configured
	JWTProvider *jwtinfra.Provider
	Codes       *verification.Store
}
