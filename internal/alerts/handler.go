package alerts

import "github.com/gofiber/fiber/v2"

// GET /api/stock-alerts
func Handler(s *Scanner) fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := s.Scan(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(r)
	}
}
