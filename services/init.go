package services

import (
	"github.com/rasterpost/rasterpost/config"
	"github.com/rasterpost/rasterpost/interfaces"
	"github.com/rasterpost/rasterpost/internal/logger"
	"github.com/rasterpost/rasterpost/services/authorizer"
	"github.com/rasterpost/rasterpost/services/converter"
	"github.com/rasterpost/rasterpost/services/daemon"
	"github.com/rasterpost/rasterpost/services/imap"
	"github.com/rasterpost/rasterpost/services/processor"
	"github.com/rasterpost/rasterpost/services/smtp"
)

type Services struct {
	AuthorizerService interfaces.SenderAuthorizer
	ConverterService  interfaces.Rasterizer
	IMAPService       interfaces.MailReceiver
	SMTPService       interfaces.MailSender
	ProcessorService  *processor.ProcessorService
	DaemonService     *daemon.DaemonService
}

func InitServices(cfg *config.Config, log logger.Logger) (*Services, error) {
	auth, err := authorizer.NewSenderAuthorizer(cfg.Processor.SenderWhitelistRegex)
	if err != nil {
		return nil, err
	}

	rasterizer := converter.NewConverterService(cfg.Converter, log)
	receiver := imap.NewIMAPService(cfg.IMAP, log)
	sender := smtp.NewSMTPService(cfg.SMTP, log)
	proc := processor.NewProcessorService(cfg.Processor, auth, rasterizer, sender, log)

	services := Services{
		AuthorizerService: auth,
		ConverterService:  rasterizer,
		IMAPService:       receiver,
		SMTPService:       sender,
		ProcessorService:  proc,
		DaemonService:     daemon.NewDaemonService(cfg.Processor, receiver, sender, proc, log),
	}

	return &services, nil
}
