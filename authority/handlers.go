package authority

import (
	"net/http"

	"clinicbook/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

func (a *Authority) register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "name, email and password are required"})
		return
	}
	if req.Role == "" {
		req.Role = models.RolePatient
	}
	if req.Role != models.RolePatient && req.Role != models.RoleDoctor && req.Role != models.RoleAdmin {
		c.JSON(http.StatusBadRequest, gin.H{"message": "unknown role"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to hash password"})
		return
	}

	a.store.mu.Lock()
	if _, taken := a.store.byEmail[req.Email]; taken {
		a.store.mu.Unlock()
		c.JSON(http.StatusConflict, gin.H{"message": "email already registered"})
		return
	}
	user := a.store.addAccount(models.User{
		Name:           req.Name,
		Email:          req.Email,
		Role:           req.Role,
		Specialization: req.Specialization,
	}, hash)
	a.store.mu.Unlock()

	token, err := a.signToken(user.ID, user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to sign token"})
		return
	}
	c.JSON(http.StatusCreated, models.AuthResponse{Token: token, User: user})
}

func (a *Authority) login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	a.store.mu.Lock()
	id, ok := a.store.byEmail[req.Email]
	var acc *account
	if ok {
		acc = a.store.accounts[id]
	}
	a.store.mu.Unlock()

	if acc == nil || bcrypt.CompareHashAndPassword(acc.hash, []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid email or password"})
		return
	}

	token, err := a.signToken(acc.user.ID, acc.user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to sign token"})
		return
	}
	c.JSON(http.StatusOK, models.AuthResponse{Token: token, User: acc.user})
}

func (a *Authority) listServices(c *gin.Context) {
	a.store.mu.Lock()
	services := make([]models.Service, 0, len(a.store.services))
	for _, svc := range a.store.services {
		services = append(services, *svc)
	}
	a.store.mu.Unlock()
	c.JSON(http.StatusOK, services)
}

func (a *Authority) createService(c *gin.Context) {
	var svc models.Service
	if err := c.ShouldBindJSON(&svc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}
	if svc.Name == "" || svc.DurationMin <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "name and a positive duration are required"})
		return
	}
	svc.ID = uuid.New().String()

	a.store.mu.Lock()
	a.store.services[svc.ID] = &svc
	a.store.mu.Unlock()
	c.JSON(http.StatusCreated, svc)
}

func (a *Authority) updateService(c *gin.Context) {
	var svc models.Service
	if err := c.ShouldBindJSON(&svc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}
	id := c.Param("id")

	a.store.mu.Lock()
	defer a.store.mu.Unlock()
	existing, ok := a.store.services[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "service not found"})
		return
	}
	svc.ID = existing.ID
	a.store.services[id] = &svc
	c.JSON(http.StatusOK, svc)
}

func (a *Authority) deleteService(c *gin.Context) {
	id := c.Param("id")
	a.store.mu.Lock()
	defer a.store.mu.Unlock()
	if _, ok := a.store.services[id]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "service not found"})
		return
	}
	delete(a.store.services, id)
	c.JSON(http.StatusOK, gin.H{"message": "service deleted"})
}

func (a *Authority) listDoctors(c *gin.Context) {
	a.store.mu.Lock()
	var doctors []models.User
	for _, acc := range a.store.accounts {
		if acc.user.Role == models.RoleDoctor {
			doctors = append(doctors, a.store.populateServices(acc.user))
		}
	}
	a.store.mu.Unlock()
	if doctors == nil {
		doctors = []models.User{}
	}
	c.JSON(http.StatusOK, doctors)
}

func (a *Authority) me(c *gin.Context) {
	user := currentUser(c)
	a.store.mu.Lock()
	populated := a.store.populateServices(user)
	a.store.mu.Unlock()
	c.JSON(http.StatusOK, populated)
}

func (a *Authority) setMyServices(c *gin.Context) {
	a.replaceServices(c, currentUser(c).ID)
}

func (a *Authority) listUsers(c *gin.Context) {
	a.store.mu.Lock()
	users := make([]models.User, 0, len(a.store.accounts))
	for _, acc := range a.store.accounts {
		users = append(users, a.store.populateServices(acc.user))
	}
	a.store.mu.Unlock()
	c.JSON(http.StatusOK, users)
}

func (a *Authority) listAppointments(c *gin.Context) {
	a.store.mu.Lock()
	appts := make([]models.Appointment, 0, len(a.store.appointments))
	for _, rec := range a.store.appointments {
		appts = append(appts, a.store.populateAppointment(rec))
	}
	a.store.mu.Unlock()
	c.JSON(http.StatusOK, appts)
}

func (a *Authority) assignServices(c *gin.Context) {
	a.replaceServices(c, c.Param("id"))
}

// replaceServices swaps a doctor's offered-services set for the ids in the
// request body, rejecting unknown services.
func (a *Authority) replaceServices(c *gin.Context, userID string) {
	var req struct {
		ServiceIDs []string `json:"serviceIds"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	a.store.mu.Lock()
	defer a.store.mu.Unlock()
	acc, ok := a.store.accounts[userID]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "user not found"})
		return
	}
	if acc.user.Role != models.RoleDoctor {
		c.JSON(http.StatusBadRequest, gin.H{"message": "services can only be assigned to doctors"})
		return
	}

	refs := make([]models.ServiceRef, 0, len(req.ServiceIDs))
	for _, id := range req.ServiceIDs {
		if _, ok := a.store.services[id]; !ok {
			c.JSON(http.StatusBadRequest, gin.H{"message": "unknown service " + id})
			return
		}
		refs = append(refs, models.ServiceRef{ID: id})
	}
	acc.user.Services = refs
	c.JSON(http.StatusOK, a.store.populateServices(acc.user))
}
