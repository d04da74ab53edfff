package server

import "github.com/gofiber/fiber/v2"

// AboutAuthor handles GET /about/author/
func (s *Server) AboutAuthor(c *fiber.Ctx) error {
	return c.Render("about/author.html", s.page(c, "Об авторе"))
}

// AboutTech handles GET /about/tech/
func (s *Server) AboutTech(c *fiber.Ctx) error {
	return c.Render("about/tech.html", s.page(c, "Технологии"))
}
