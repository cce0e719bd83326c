package controller

import (
	"ai-bookrec-be/internal/dto"
	"ai-bookrec-be/internal/pkg/serverutils"
	"ai-bookrec-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IBookController interface {
	RegisterRoutes(r fiber.Router)
	Browse(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Discover(ctx *fiber.Ctx) error
}

type bookController struct {
	bookService service.IBookService
}

func NewBookController(bookService service.IBookService) IBookController {
	return &bookController{
		bookService: bookService,
	}
}

func (c *bookController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/book/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("", c.Browse)
	h.Post("discover", c.Discover)
	h.Get(":id", c.Show)
}

func (c *bookController) Browse(ctx *fiber.Ctx) error {
	var req dto.BrowseBooksRequest
	if err := ctx.QueryParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.bookService.Browse(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success browse books", res))
}

func (c *bookController) Show(ctx *fiber.Ctx) error {
	id := ctx.Params("id")

	res, err := c.bookService.Detail(ctx.Context(), id)
	if err != nil {
		return err
	}
	if res == nil {
		return fiber.NewError(fiber.StatusNotFound, "Book not found")
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show book", res))
}

func (c *bookController) Discover(ctx *fiber.Ctx) error {
	var req dto.DiscoverBooksRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.bookService.Discover(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success discover books", res))
}
