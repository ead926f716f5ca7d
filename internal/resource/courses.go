package resource

import (
	"context"
	"net/http"
	"strconv"

	"github.com/utafrali/coursehub/internal/domain"
	"github.com/utafrali/coursehub/pkg/pagination"
	"github.com/utafrali/coursehub/pkg/validator"
)

// Courses covers the catalogue: categories, courses, modules and lessons.
type Courses struct {
	req Requester
}

// --- Categories ---

func (c *Courses) Categories(ctx context.Context) ([]domain.Category, error) {
	return list[domain.Category](ctx, c.req, "categories/", nil)
}

func (c *Courses) Category(ctx context.Context, id int64) (*domain.Category, error) {
	path, err := idPath("categories/%d/", id)
	if err != nil {
		return nil, err
	}
	return get[domain.Category](ctx, c.req, path, nil)
}

func (c *Courses) CreateCategory(ctx context.Context, in domain.CategoryInput) (*domain.Category, error) {
	if err := validator.Validate(in); err != nil {
		return nil, err
	}
	return send[domain.Category](ctx, c.req, http.MethodPost, "categories/", in)
}

func (c *Courses) UpdateCategory(ctx context.Context, id int64, in domain.CategoryInput) (*domain.Category, error) {
	path, err := idPath("categories/%d/", id)
	if err != nil {
		return nil, err
	}
	if err := validator.Validate(in); err != nil {
		return nil, err
	}
	return send[domain.Category](ctx, c.req, http.MethodPut, path, in)
}

func (c *Courses) DeleteCategory(ctx context.Context, id int64) error {
	path, err := idPath("categories/%d/", id)
	if err != nil {
		return err
	}
	return exec(ctx, c.req, http.MethodDelete, path, nil)
}

// --- Courses ---

// List returns one page of the catalogue.
func (c *Courses) List(ctx context.Context, f domain.CourseFilter, p pagination.Params) ([]domain.Course, error) {
	q := pageQuery(p)
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.CategoryID > 0 {
		q.Set("category", strconv.FormatInt(f.CategoryID, 10))
	}
	if f.Ordering != "" {
		q.Set("ordering", f.Ordering)
	}
	return list[domain.Course](ctx, c.req, "courses/", q)
}

func (c *Courses) Get(ctx context.Context, id int64) (*domain.Course, error) {
	path, err := idPath("courses/%d/", id)
	if err != nil {
		return nil, err
	}
	return get[domain.Course](ctx, c.req, path, nil)
}

func (c *Courses) Create(ctx context.Context, in domain.CourseInput) (*domain.Course, error) {
	if err := validator.Validate(in); err != nil {
		return nil, err
	}
	return send[domain.Course](ctx, c.req, http.MethodPost, "courses/", in)
}

func (c *Courses) Update(ctx context.Context, id int64, in domain.CoursePatch) (*domain.Course, error) {
	path, err := idPath("courses/%d/", id)
	if err != nil {
		return nil, err
	}
	if err := validator.Validate(in); err != nil {
		return nil, err
	}
	return send[domain.Course](ctx, c.req, http.MethodPatch, path, in)
}

func (c *Courses) Delete(ctx context.Context, id int64) error {
	path, err := idPath("courses/%d/", id)
	if err != nil {
		return err
	}
	return exec(ctx, c.req, http.MethodDelete, path, nil)
}

// Mine returns the courses the caller is enrolled in.
func (c *Courses) Mine(ctx context.Context) ([]domain.Course, error) {
	return list[domain.Course](ctx, c.req, "courses/my/", nil)
}

func (c *Courses) Favourites(ctx context.Context) ([]domain.Course, error) {
	return list[domain.Course](ctx, c.req, "courses/favourites/", nil)
}

func (c *Courses) Favourite(ctx context.Context, id int64) error {
	path, err := idPath("courses/%d/favourite/", id)
	if err != nil {
		return err
	}
	return exec(ctx, c.req, http.MethodPost, path, nil)
}

func (c *Courses) Unfavourite(ctx context.Context, id int64) error {
	path, err := idPath("courses/%d/unfavourite/", id)
	if err != nil {
		return err
	}
	return exec(ctx, c.req, http.MethodPost, path, nil)
}

func (c *Courses) AddManager(ctx context.Context, courseID, userID int64) error {
	path, err := idPath("courses/%d/managers/", courseID)
	if err != nil {
		return err
	}
	if err := validator.Var("user id", userID, "gt=0"); err != nil {
		return err
	}
	return exec(ctx, c.req, http.MethodPost, path, userRef{User: userID})
}

func (c *Courses) RemoveManager(ctx context.Context, courseID, userID int64) error {
	path, err := idPath("courses/%d/managers/%d/", courseID, userID)
	if err != nil {
		return err
	}
	return exec(ctx, c.req, http.MethodDelete, path, nil)
}

// --- Modules ---

// CourseModules lists a course's modules in backend order.
func (c *Courses) CourseModules(ctx context.Context, courseID int64) ([]domain.Module, error) {
	path, err := idPath("courses/%d/modules/", courseID)
	if err != nil {
		return nil, err
	}
	return list[domain.Module](ctx, c.req, path, nil)
}

func (c *Courses) Modules(ctx context.Context) ([]domain.Module, error) {
	return list[domain.Module](ctx, c.req, "modules/", nil)
}

func (c *Courses) Module(ctx context.Context, id int64) (*domain.Module, error) {
	path, err := idPath("modules/%d/", id)
	if err != nil {
		return nil, err
	}
	return get[domain.Module](ctx, c.req, path, nil)
}

func (c *Courses) CreateModule(ctx context.Context, in domain.ModuleInput) (*domain.Module, error) {
	if err := validator.Validate(in); err != nil {
		return nil, err
	}
	return send[domain.Module](ctx, c.req, http.MethodPost, "modules/", in)
}

func (c *Courses) UpdateModule(ctx context.Context, id int64, in domain.ModuleInput) (*domain.Module, error) {
	path, err := idPath("modules/%d/", id)
	if err != nil {
		return nil, err
	}
	if err := validator.Validate(in); err != nil {
		return nil, err
	}
	return send[domain.Module](ctx, c.req, http.MethodPut, path, in)
}

func (c *Courses) DeleteModule(ctx context.Context, id int64) error {
	path, err := idPath("modules/%d/", id)
	if err != nil {
		return err
	}
	return exec(ctx, c.req, http.MethodDelete, path, nil)
}

// EnrollModule enrolls the caller in one module. Failures keep their
// structured code, e.g. payment_required or already_enrolled.
func (c *Courses) EnrollModule(ctx context.Context, id int64) (*domain.Enrollment, error) {
	path, err := idPath("modules/%d/enroll/", id)
	if err != nil {
		return nil, err
	}
	return send[domain.Enrollment](ctx, c.req, http.MethodPost, path, nil)
}

// --- Lessons ---

func (c *Courses) ModuleLessons(ctx context.Context, moduleID int64) ([]domain.Lesson, error) {
	path, err := idPath("modules/%d/lessons/", moduleID)
	if err != nil {
		return nil, err
	}
	return list[domain.Lesson](ctx, c.req, path, nil)
}

func (c *Courses) Lessons(ctx context.Context) ([]domain.Lesson, error) {
	return list[domain.Lesson](ctx, c.req, "lessons/", nil)
}

func (c *Courses) Lesson(ctx context.Context, id int64) (*domain.Lesson, error) {
	path, err := idPath("lessons/%d/", id)
	if err != nil {
		return nil, err
	}
	return get[domain.Lesson](ctx, c.req, path, nil)
}

func (c *Courses) CreateLesson(ctx context.Context, in domain.LessonInput) (*domain.Lesson, error) {
	if err := validator.Validate(in); err != nil {
		return nil, err
	}
	return send[domain.Lesson](ctx, c.req, http.MethodPost, "lessons/", in)
}

func (c *Courses) UpdateLesson(ctx context.Context, id int64, in domain.LessonInput) (*domain.Lesson, error) {
	path, err := idPath("lessons/%d/", id)
	if err != nil {
		return nil, err
	}
	if err := validator.Validate(in); err != nil {
		return nil, err
	}
	return send[domain.Lesson](ctx, c.req, http.MethodPut, path, in)
}

func (c *Courses) DeleteLesson(ctx context.Context, id int64) error {
	path, err := idPath("lessons/%d/", id)
	if err != nil {
		return err
	}
	return exec(ctx, c.req, http.MethodDelete, path, nil)
}

// CompleteLesson marks a lesson as done for the caller.
func (c *Courses) CompleteLesson(ctx context.Context, id int64) error {
	path, err := idPath("lessons/%d/complete/", id)
	if err != nil {
		return err
	}
	return exec(ctx, c.req, http.MethodPost, path, nil)
}
