package middleware

import (
	"errors"

	"coursehub/apperr"

	"github.com/gofiber/fiber/v2"
)

var kindStatus = map[apperr.Kind]int{
	apperr.KindNotFound:                  fiber.StatusNotFound,
	apperr.KindAlreadyEnrolled:           fiber.StatusConflict,
	apperr.KindNotEnrolled:               fiber.StatusForbidden,
	apperr.KindPaymentVerificationFailed: fiber.StatusBadGateway,
	apperr.KindReconciliationMiss:        fiber.StatusNotFound,
	apperr.KindInvalid:                   fiber.StatusUnprocessableEntity,
	apperr.KindForbidden:                 fiber.StatusForbidden,
}

const paymentRetryHint = "We could not confirm your payment. Retry from the course page, and contact support if you were charged."

// StatusFor maps an error to the HTTP status it is rendered with.
func StatusFor(err error) int {
	if e := apperr.As(err); e != nil {
		if status, ok := kindStatus[e.Kind]; ok {
			return status
		}
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return fiber.StatusInternalServerError
}

// ErrorResponse renders err in the standard envelope. Typed errors carry their
// kind and a redirect hint in data; anything else is an opaque 500.
func ErrorResponse(c *fiber.Ctx, err error) error {
	status := StatusFor(err)

	e := apperr.As(err)
	if e == nil {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return JsonResponse(c, fe.Code, false, fe.Message, nil)
		}
		return JsonResponse(c, status, false, "Something went wrong!", nil)
	}

	data := fiber.Map{"kind": e.Kind}
	if e.Redirect != "" {
		data["redirect"] = e.Redirect
	}
	message := e.Message
	if message == "" {
		message = string(e.Kind)
	}
	if e.Kind == apperr.KindPaymentVerificationFailed {
		data["warning"] = message
		data["retry"] = paymentRetryHint
	}
	return JsonResponse(c, status, false, message, data)
}

// FiberErrorHandler renders errors returned from handlers that did not write a response.
func FiberErrorHandler(c *fiber.Ctx, err error) error {
	return ErrorResponse(c, err)
}
