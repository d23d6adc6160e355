package handler

import (
	"github.com/labstack/echo/v4"

	"apptrueq/internal/usecase"
)

var (
	userHandler         *UserHandler
	publicationHandler  *PublicationHandler
	proposalHandler     *ProposalHandler
	tradeHandler        *TradeHandler
	notificationHandler *NotificationHandler
	reportHandler       *ReportHandler
)

func Setup(
	userUseCase *usecase.UserUseCase,
	publicationUseCase *usecase.PublicationUseCase,
	proposalUseCase *usecase.ProposalUseCase,
	tradeUseCase *usecase.TradeUseCase,
	notificationUseCase *usecase.NotificationUseCase,
	reportUseCase *usecase.ReportUseCase,
) {
	userHandler = NewUserHandler(userUseCase)
	publicationHandler = NewPublicationHandler(publicationUseCase)
	proposalHandler = NewProposalHandler(proposalUseCase)
	tradeHandler = NewTradeHandler(tradeUseCase)
	notificationHandler = NewNotificationHandler(notificationUseCase)
	reportHandler = NewReportHandler(reportUseCase)
}

func GetUserHandler() *UserHandler {
	return userHandler
}

func GetPublicationHandler() *PublicationHandler {
	return publicationHandler
}

func GetProposalHandler() *ProposalHandler {
	return proposalHandler
}

func GetTradeHandler() *TradeHandler {
	return tradeHandler
}

func GetNotificationHandler() *NotificationHandler {
	return notificationHandler
}

func GetReportHandler() *ReportHandler {
	return reportHandler
}

// currentUser reads the uid set by the auth middleware; "" when anonymous.
func currentUser(c echo.Context) string {
	uid, _ := c.Get("uid").(string)
	return uid
}
