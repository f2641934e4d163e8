package validate

import (
	"github.com/agrismart/pkg/errors"
	"github.com/gofiber/fiber/v2"
)

// Body 解析请求体并校验
func Body(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return errors.BadRequest("Invalid request body")
	}
	return Struct(dst)
}

// Query 解析查询参数并校验
func Query(c *fiber.Ctx, dst any) error {
	if err := c.QueryParser(dst); err != nil {
		return errors.BadRequest("Invalid query parameters")
	}
	return Struct(dst)
}
