package authority

import (
	"net/http"
	"strconv"
	"time"

	"clinicbook/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (a *Authority) mySchedule(c *gin.Context) {
	a.renderSchedule(c, currentUser(c).ID)
}

func (a *Authority) doctorSchedule(c *gin.Context) {
	a.renderSchedule(c, c.Param("id"))
}

func (a *Authority) renderSchedule(c *gin.Context, doctorID string) {
	a.store.mu.Lock()
	sched, ok := a.store.schedules[doctorID]
	var out models.Schedule
	if ok {
		out = *sched
		out.Slots = append([]models.Slot(nil), sched.Slots...)
	}
	a.store.mu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "schedule not found"})
		return
	}
	c.JSON(http.StatusOK, out)
}

func (a *Authority) addSlots(c *gin.Context) {
	var req struct {
		Slots []models.SlotRange `json:"slots"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Slots) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "at least one slot is required"})
		return
	}

	type window struct{ start, end time.Time }
	incoming := make([]window, 0, len(req.Slots))
	for _, r := range req.Slots {
		start, err := time.Parse(time.RFC3339, r.Start)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid slot start"})
			return
		}
		end, err := time.Parse(time.RFC3339, r.End)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid slot end"})
			return
		}
		if !end.After(start) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "slot end must be after start"})
			return
		}
		incoming = append(incoming, window{start, end})
	}

	user := currentUser(c)
	a.store.mu.Lock()
	defer a.store.mu.Unlock()
	sched := a.store.schedules[user.ID]
	if sched == nil {
		sched = &models.Schedule{ID: uuid.New().String(), DoctorID: user.ID, Slots: []models.Slot{}}
		a.store.schedules[user.ID] = sched
	}

	existing := make([]window, 0, len(sched.Slots))
	for _, s := range sched.Slots {
		start, err1 := time.Parse(time.RFC3339, s.Start)
		end, err2 := time.Parse(time.RFC3339, s.End)
		if err1 != nil || err2 != nil {
			continue
		}
		existing = append(existing, window{start, end})
	}

	all := existing
	for _, w := range incoming {
		for _, e := range all {
			if w.start.Before(e.end) && e.start.Before(w.end) {
				c.JSON(http.StatusConflict, gin.H{"message": "slot overlaps an existing slot"})
				return
			}
		}
		all = append(all, w)
	}

	for _, r := range req.Slots {
		sched.Slots = append(sched.Slots, models.Slot{Start: r.Start, End: r.End})
	}
	c.JSON(http.StatusCreated, *sched)
}

func (a *Authority) deleteSlot(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid slot index"})
		return
	}
	user := currentUser(c)

	a.store.mu.Lock()
	defer a.store.mu.Unlock()
	sched := a.store.schedules[user.ID]
	if sched == nil || sched.ID != c.Param("id") {
		c.JSON(http.StatusNotFound, gin.H{"message": "schedule not found"})
		return
	}
	if index < 0 || index >= len(sched.Slots) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "slot index out of range"})
		return
	}
	if sched.Slots[index].Booked {
		c.JSON(http.StatusConflict, gin.H{"message": "slot is booked and cannot be deleted"})
		return
	}
	sched.Slots = append(sched.Slots[:index], sched.Slots[index+1:]...)
	c.JSON(http.StatusOK, gin.H{"message": "slot deleted"})
}

func (a *Authority) myAppointments(c *gin.Context) {
	user := currentUser(c)
	a.store.mu.Lock()
	appts := make([]models.Appointment, 0)
	for _, rec := range a.store.appointments {
		if rec.PatientID == user.ID {
			appts = append(appts, a.store.populateAppointment(rec))
		}
	}
	a.store.mu.Unlock()
	c.JSON(http.StatusOK, appts)
}

func (a *Authority) book(c *gin.Context) {
	var req models.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}
	if req.ServiceID == "" || req.DoctorID == "" || req.SlotStart == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "serviceId, doctorId and slotStart are required"})
		return
	}
	start, err := time.Parse(time.RFC3339, req.SlotStart)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid slot start"})
		return
	}

	user := currentUser(c)
	a.store.mu.Lock()
	defer a.store.mu.Unlock()

	svc, ok := a.store.services[req.ServiceID]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "service not found"})
		return
	}
	doctorAcc, ok := a.store.accounts[req.DoctorID]
	if !ok || doctorAcc.user.Role != models.RoleDoctor {
		c.JSON(http.StatusNotFound, gin.H{"message": "doctor not found"})
		return
	}
	if !doctorAcc.user.OffersService(req.ServiceID) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "doctor does not offer this service"})
		return
	}
	sched := a.store.schedules[req.DoctorID]
	if sched == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "schedule not found"})
		return
	}

	slotIdx := -1
	for i, s := range sched.Slots {
		if s.Start == req.SlotStart {
			slotIdx = i
			break
		}
	}
	if slotIdx < 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "slot not found"})
		return
	}
	if sched.Slots[slotIdx].Booked {
		c.JSON(http.StatusConflict, gin.H{"message": "slot already booked"})
		return
	}

	sched.Slots[slotIdx].Booked = true
	rec := &appointmentRecord{
		ID:        uuid.New().String(),
		PatientID: user.ID,
		DoctorID:  req.DoctorID,
		ServiceID: req.ServiceID,
		Start:     req.SlotStart,
		End:       start.Add(time.Duration(svc.DurationMin) * time.Minute).Format(time.RFC3339),
		Status:    models.StatusBooked,
		CreatedAt: time.Now(),
	}
	a.store.appointments[rec.ID] = rec
	c.JSON(http.StatusCreated, a.store.populateAppointment(rec))
}

func (a *Authority) cancelAppointment(c *gin.Context) {
	user := currentUser(c)
	a.store.mu.Lock()
	defer a.store.mu.Unlock()

	rec, ok := a.store.appointments[c.Param("id")]
	if !ok || rec.PatientID != user.ID {
		c.JSON(http.StatusNotFound, gin.H{"message": "appointment not found"})
		return
	}
	if rec.Status != models.StatusBooked {
		c.JSON(http.StatusConflict, gin.H{"message": "only booked appointments can be cancelled"})
		return
	}

	// Free the backing slot so it reappears as available.
	if sched := a.store.schedules[rec.DoctorID]; sched != nil {
		for i, s := range sched.Slots {
			if s.Start == rec.Start && s.Booked {
				sched.Slots[i].Booked = false
				break
			}
		}
	}
	delete(a.store.appointments, rec.ID)
	c.JSON(http.StatusOK, gin.H{"message": "appointment cancelled"})
}

func (a *Authority) doctorAppointments(c *gin.Context) {
	user := currentUser(c)
	a.store.mu.Lock()
	appts := make([]models.Appointment, 0)
	for _, rec := range a.store.appointments {
		if rec.DoctorID == user.ID {
			appts = append(appts, a.store.populateAppointment(rec))
		}
	}
	a.store.mu.Unlock()
	c.JSON(http.StatusOK, appts)
}

func (a *Authority) updateAppointment(c *gin.Context) {
	var upd models.AppointmentUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}
	if upd.Status != "" && !models.ValidStatus(upd.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "unknown status"})
		return
	}

	user := currentUser(c)
	a.store.mu.Lock()
	defer a.store.mu.Unlock()
	rec, ok := a.store.appointments[c.Param("id")]
	if !ok || rec.DoctorID != user.ID {
		c.JSON(http.StatusNotFound, gin.H{"message": "appointment not found"})
		return
	}

	rec.Diagnosis = upd.Diagnosis
	rec.Notes = upd.Notes
	if upd.Status != "" {
		rec.Status = upd.Status
	}
	rec.NextVisitAt = upd.NextVisitAt
	c.JSON(http.StatusOK, a.store.populateAppointment(rec))
}
