package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/flowlearn/pawfessor/core/course"
)

func roleMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			for _, role := range roles {
				if claims.Role == role {
					return next(ctx)
				}
			}
			return errHttpForbidden
		}
	}
}

func canEdit(claims Claims, c course.Course) bool {
	return claims.IsAdmin() || c.CreatedBy == claims.Subject
}

// canView hides unpublished courses from everyone but their author and admins.
func canView(claims Claims, c course.Course) bool {
	return c.IsPublished || canEdit(claims, c)
}

// courseMiddleware loads the `:id` course into the context as "object".
// With edit set only the course author and admins get through; others are forbidden.
// Courses the profile cannot view are not found.
func courseMiddleware(svc *course.Service, edit bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			c, err := svc.GetCourse(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				return errors.Wrap(err, "finding course by ID")
			}
			if !canView(claims, c) {
				return errHttpNotFound
			}
			if edit && !canEdit(claims, c) {
				return errHttpForbidden
			}
			ctx.Set(contextObjectKey, c)
			return next(ctx)
		}
	}
}

// contentOwnerMiddleware loads the `:id` content into the context as "object",
// letting through the author of its course and admins only.
func contentOwnerMiddleware(svc *course.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			content, err := svc.GetContent(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				return errors.Wrap(err, "finding content by ID")
			}
			c, err := svc.GetCourse(ctx.Request().Context(), content.CourseID)
			if err != nil {
				return errors.Wrap(err, "finding content course")
			}
			if !canEdit(claims, c) {
				return errHttpForbidden
			}
			ctx.Set(contextObjectKey, content)
			return next(ctx)
		}
	}
}
