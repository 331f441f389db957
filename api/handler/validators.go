package handler

import (
	"github.com/Ccode104/Lab-Assistant/internal/models"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// validSubmissionStatus 校验状态过滤参数是否为已知的提交状态
var validSubmissionStatus validator.Func = func(fl validator.FieldLevel) bool {
	switch models.SubmissionStatus(fl.Field().String()) {
	case models.SubStatusUploaded, models.SubStatusProcessing,
		models.SubStatusCompleted, models.SubStatusFailed:
		return true
	}
	return false
}

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("submissionstatus", validSubmissionStatus)
	}
}
