package server

import (
	"postboard/internal/models"
	"postboard/internal/validation"

	"github.com/gofiber/fiber/v2"
)

func campaignID(c *fiber.Ctx) (int, error) {
	id, err := parseID(c, "id")
	return int(id), err
}

// ListCampaigns handles GET {root}/campaigns
func (s *Server) ListCampaigns(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"campaigns": s.campaigns.List()})
}

// GetCampaign handles GET {root}/campaigns/:id
func (s *Server) GetCampaign(c *fiber.Ctx) error {
	id, err := campaignID(c)
	if err != nil {
		return respondWithError(c, err)
	}

	campaign, ok := s.campaigns.Get(id)
	if !ok {
		return respondWithError(c, models.NewNotFoundError(models.MsgCampaignNotFound))
	}
	return c.JSON(fiber.Map{"campaign": campaign})
}

// CreateCampaign handles POST {root}/campaigns. Keys other than name are ignored.
func (s *Server) CreateCampaign(c *fiber.Ctx) error {
	body, err := validation.BindObject(c.Body())
	if err != nil {
		return respondWithError(c, err)
	}

	campaign := s.campaigns.Create(body[models.CampaignNameKey])
	return c.JSON(fiber.Map{"campaign": campaign})
}

// ReplaceCampaign handles PUT {root}/campaigns/:id. The body replaces the
// record verbatim, so it is only found again by a campaign_id it carries.
func (s *Server) ReplaceCampaign(c *fiber.Ctx) error {
	id, err := campaignID(c)
	if err != nil {
		return respondWithError(c, err)
	}

	doc, err := validation.BindObject(c.Body())
	if err != nil {
		return respondWithError(c, err)
	}
	body := models.Campaign(doc)

	if !s.campaigns.Replace(id, body) {
		return respondWithError(c, models.NewNotFoundError(models.MsgIDNotFoundShort))
	}
	return c.JSON(fiber.Map{"campaign_added": body})
}

// DeleteCampaign handles DELETE {root}/campaigns/:id
func (s *Server) DeleteCampaign(c *fiber.Ctx) error {
	id, err := campaignID(c)
	if err != nil {
		return respondWithError(c, err)
	}

	removed, ok := s.campaigns.Delete(id)
	if !ok {
		return respondWithError(c, models.NewNotFoundError(models.MsgIDNotFoundShort))
	}
	return c.JSON(fiber.Map{"campaign_removed": removed})
}
