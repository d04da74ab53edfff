package server

import (
	"fmt"
	"net/url"
	"strconv"

	"yatube/internal/models"
	"yatube/internal/render"
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Index handles GET /
func (s *Server) Index(c *fiber.Ctx) error {
	result, err := s.postService.ListIndex(c.UserContext(), c.Query("page"))
	if err != nil {
		return err
	}

	data := s.page(c, "Последние обновления на сайте")
	data.Page = &result.Page
	data.Posts = result.Posts
	return c.Render("posts/index.html", data)
}

// GroupPosts handles GET /group/:slug/
func (s *Server) GroupPosts(c *fiber.Ctx) error {
	group, result, err := s.postService.ListGroup(c.UserContext(), c.Params("slug"), c.Query("page"))
	if err != nil {
		return err
	}

	data := s.page(c, "Записи сообщества "+group.Title)
	data.Group = group
	data.Page = &result.Page
	data.Posts = result.Posts
	return c.Render("posts/group_list.html", data)
}

// Profile handles GET /profile/:username/
func (s *Server) Profile(c *fiber.Ctx) error {
	author, result, err := s.postService.ListProfile(c.UserContext(), c.Params("username"), c.Query("page"))
	if err != nil {
		return err
	}

	data := s.page(c, "Профайл пользователя "+author.FullName())
	data.Author = author
	data.PostCount = result.Page.Count
	data.Page = &result.Page
	data.Posts = result.Posts
	return c.Render("posts/profile.html", data)
}

// PostDetail handles GET /posts/:id/
func (s *Server) PostDetail(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	post, count, err := s.postService.GetPost(c.UserContext(), id)
	if err != nil {
		return err
	}

	data := s.page(c, "Пост "+post.Excerpt())
	data.Post = post
	data.PostCount = count
	return c.Render("posts/post_detail.html", data)
}

// PostCreatePage handles GET /create/
func (s *Server) PostCreatePage(c *fiber.Ctx) error {
	return s.renderPostForm(c, service.PostForm{}, nil, nil)
}

// PostCreate handles POST /create/
func (s *Server) PostCreate(c *fiber.Ctx) error {
	userID, _ := currentUserID(c)

	var form service.PostForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid form submission")
	}

	_, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		AuthorID: userID,
		Form:     form,
	})
	if fields, ok := formErrors(err); ok {
		return s.renderPostForm(c, form, fields, nil)
	}
	if err != nil {
		return err
	}

	return c.Redirect(profilePath(currentUser(c).Username), fiber.StatusFound)
}

// PostEditPage handles GET /posts/:id/edit/
func (s *Server) PostEditPage(c *fiber.Ctx) error {
	userID, _ := currentUserID(c)
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	post, err := s.postService.EditablePost(c.UserContext(), userID, id)
	if models.HasCode(err, models.CodeUnauthorized) {
		return c.Redirect(postPath(id), fiber.StatusFound)
	}
	if err != nil {
		return err
	}

	form := service.PostForm{Text: post.Text}
	if post.GroupID != nil {
		form.Group = strconv.FormatUint(uint64(*post.GroupID), 10)
	}
	return s.renderPostForm(c, form, nil, post)
}

// PostEdit handles POST /posts/:id/edit/
func (s *Server) PostEdit(c *fiber.Ctx) error {
	userID, _ := currentUserID(c)
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var form service.PostForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid form submission")
	}

	post, err := s.postService.UpdatePost(c.UserContext(), service.UpdatePostInput{
		UserID: userID,
		PostID: id,
		Form:   form,
	})
	if models.HasCode(err, models.CodeUnauthorized) {
		return c.Redirect(postPath(id), fiber.StatusFound)
	}
	if fields, ok := formErrors(err); ok {
		return s.renderPostForm(c, form, fields, &models.Post{ID: id})
	}
	if err != nil {
		return err
	}

	return c.Redirect(postPath(post.ID), fiber.StatusFound)
}

// renderPostForm renders the create form, or the edit form when post is set.
func (s *Server) renderPostForm(c *fiber.Ctx, form service.PostForm, fields models.FieldErrors, post *models.Post) error {
	groups, err := s.postService.Groups(c.UserContext())
	if err != nil {
		return err
	}

	var data *render.Data
	if post != nil {
		data = s.page(c, "Редактировать пост")
		data.IsEdit = true
		data.PostID = post.ID
	} else {
		data = s.page(c, "Новый пост")
	}
	data.Groups = groups
	data.Form = map[string]string{"text": form.Text, "group": form.Group}
	data.Errors = fields
	return c.Render("posts/create_post.html", data)
}

func postPath(id uint) string {
	return fmt.Sprintf("/posts/%d/", id)
}

func profilePath(username string) string {
	return "/profile/" + url.PathEscape(username) + "/"
}
