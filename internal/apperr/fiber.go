package apperr

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// ErrorHandler: fiber hata yakalayıcısı. *fiber.Error olduğu gibi döner,
// *Error sınıfına göre durum kodu + reason üretir.
func ErrorHandler(log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{
				"error": fe.Message,
			})
		}

		var ae *Error
		if errors.As(err, &ae) {
			status := HTTPStatus(ae)
			if ae.Kind == KindPersistence {
				log.Error().Err(err).Str("path", c.Path()).Msg("kalıcılık hatası")
				return c.Status(status).JSON(fiber.Map{
					"error":  "İşlem tamamlanamadı, lütfen tekrar deneyin",
					"reason": ae.Reason(),
				})
			}
			return c.Status(status).JSON(fiber.Map{
				"error":  ae.Message,
				"reason": ae.Reason(),
			})
		}

		log.Error().Err(err).Str("path", c.Path()).Msg("beklenmeyen hata")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":  "Beklenmeyen sunucu hatası",
			"reason": KindPersistence.String(),
		})
	}
}
