package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/boriskezikov/greenapp.client-provider/internal/model"
	"github.com/boriskezikov/greenapp.client-provider/internal/service"
)

// findClientsBody is the JSON body of the filtered list endpoint. All filters
// are optional; absent fields are not applied.
type findClientsBody struct {
	Name    *string `json:"name"`
	Surname *string `json:"surname"`
	Login   *string `json:"login"`
	Type    *string `json:"type"`
	Offset  int64   `json:"offset"`
	Limit   int64   `json:"limit"`
}

// HealthCheck verifies DB connectivity.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a simple liveness probe.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// FindClients returns a filtered, paginated client page.
func FindClients(svc service.ClientService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body findClientsBody
		if len(c.Body()) > 0 {
			if err := json.Unmarshal(c.Body(), &body); err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "malformed filter body")
			}
		}

		req := service.FindClientsRequest{
			Name:    body.Name,
			Surname: body.Surname,
			Login:   body.Login,
			Offset:  body.Offset,
			Limit:   body.Limit,
		}
		if body.Type != nil {
			ct, err := model.ParseClientType(*body.Type)
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_TYPE", "unknown client type")
			}
			req.Type = &ct
		}

		clients, err := svc.Find(c.UserContext(), req)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(clients)
	}
}

// GetClientByID returns a single client with its attachment id when present.
func GetClientByID(svc service.ClientService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil || id <= 0 {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		client, err := svc.FindByID(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(client)
	}
}

// CreateClient creates a client with an optional attachment.
//
// The request is multipart/form-data with a "client" JSON form value and an
// optional "attachment" file part.
func CreateClient(svc service.ClientService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		client, err := clientFromForm(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_CLIENT", "malformed client part")
		}

		attachment, err := attachmentFromForm(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ATTACHMENT", "cannot read attachment part")
		}

		id, err := svc.Create(c.UserContext(), service.CreateClientRequest{
			Client:     *client,
			Attachment: attachment,
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
	}
}

// EditClient updates a client, optionally detaching the current attachment
// (?detach=true) and/or attaching a replacement file part.
func EditClient(svc service.ClientService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		client, err := clientFromForm(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_CLIENT", "malformed client part")
		}
		if client.ID <= 0 {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "client id is required")
		}

		attachment, err := attachmentFromForm(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ATTACHMENT", "cannot read attachment part")
		}

		err = svc.Edit(c.UserContext(), service.EditClientRequest{
			Client:     *client,
			Attachment: attachment,
			Detach:     c.QueryBool("detach"),
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusOK)
	}
}

// GetClientAttachment streams the client's stored attachment content.
func GetClientAttachment(svc service.ClientService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil || id <= 0 {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		attachments, err := svc.FindAttachments(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}

		a := attachments[0]
		c.Set(fiber.HeaderContentType, a.ContentType)
		return c.Send(a.Content)
	}
}

// clientFromForm decodes the "client" multipart form value.
func clientFromForm(c *fiber.Ctx) (*model.Client, error) {
	raw := c.FormValue("client")
	if raw == "" {
		return nil, &service.ValidationError{Message: "client part is required"}
	}
	var client model.Client
	if err := json.Unmarshal([]byte(raw), &client); err != nil {
		return nil, err
	}
	return &client, nil
}

// attachmentFromForm reads the optional "attachment" file part into memory.
// Returns nil without error when the part is absent; any other form error
// means the part was sent but cannot be read.
func attachmentFromForm(c *fiber.Ctx) (*service.AttachPhotoRequest, error) {
	fh, err := c.FormFile("attachment")
	if errors.Is(err, fasthttp.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	content, err := readFilePart(fh)
	if err != nil {
		return nil, err
	}
	return &service.AttachPhotoRequest{
		ContentType:   fh.Header.Get("Content-Type"),
		ContentLength: fh.Size,
		Content:       content,
	}, nil
}

func readFilePart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
