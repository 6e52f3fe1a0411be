package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"modsquad-api/services"
)

type CarController struct {
	cars *services.CarDataService
}

func NewCarController(cars *services.CarDataService) *CarController {
	return &CarController{cars: cars}
}

func (cc *CarController) GetMakes(c *gin.Context) {
	year := c.Param("year")

	makes, err := cc.cars.Makes(year)
	if err != nil {
		cc.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, makes)
}

func (cc *CarController) GetModels(c *gin.Context) {
	year := c.Param("year")
	carMake := c.Param("make")

	carModels, err := cc.cars.Models(year, carMake)
	if err != nil {
		cc.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, carModels)
}

func (cc *CarController) respondError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrYearNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch car data"})
}
