package controller

import (
	"errors"
	"net/http"

	"exam_center_backend/internal/service"
	"exam_center_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AttemptController struct {
	AttemptService *service.AttemptService
}

func NewAttemptController(attemptService *service.AttemptService) *AttemptController {
	return &AttemptController{AttemptService: attemptService}
}

func attemptStatusFor(err error) int {
	switch {
	case errors.Is(err, util.ErrExamNotFound), errors.Is(err, util.ErrAttemptNotFound):
		return http.StatusNotFound
	case errors.Is(err, util.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, util.ErrAttemptAlreadyExists), errors.Is(err, util.ErrAttemptSubmitted):
		return http.StatusConflict
	case errors.Is(err, util.ErrAttemptNotInProgress):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (c *AttemptController) fail(ctx *gin.Context, err error) {
	code := attemptStatusFor(err)
	if code == http.StatusInternalServerError {
		util.LogInternalError(ctx, err)
		return
	}
	util.Error(ctx, code, err.Error())
}

// @Summary 开始答卷
// @Tags 答卷
// @Produce json
// @Security BearerAuth
// @Param id path int true "考试ID"
// @Success 201 {object} util.Response
// @Router /api/exams/{id}/attempts [post]
func (c *AttemptController) StartAttempt(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	examID, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	attempt, err := c.AttemptService.StartAttempt(user.UserID, examID)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	util.Created(ctx, attempt)
}

// @Summary 保存单题作答
// @Tags 答卷
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "答卷ID"
// @Param body body service.SaveAnswerRequest true "作答内容"
// @Success 200 {object} util.Response
// @Router /api/attempts/{id}/answers [put]
func (c *AttemptController) SaveAnswer(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	attemptID, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req service.SaveAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	answer, err := c.AttemptService.SaveAnswer(user.UserID, attemptID, req)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	util.Success(ctx, answer)
}

// @Summary 提交答卷
// @Tags 答卷
// @Produce json
// @Security BearerAuth
// @Param id path int true "答卷ID"
// @Success 200 {object} util.Response
// @Router /api/attempts/{id}/submit [post]
func (c *AttemptController) SubmitAttempt(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	attemptID, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	attempt, err := c.AttemptService.SubmitAttempt(user.UserID, attemptID)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	util.Success(ctx, attempt)
}
