package app

import (
	"context"

	"campus-eats-api/models"
	"campus-eats-api/services"

	"github.com/sirupsen/logrus"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "campus123"

type SeedResult struct {
	Skipped bool
	Users   int
	Vendors int
	Meals   int
}

var demoUsers = []services.RegisterInput{
	{Name: "Campus Admin", Email: "admin@campus.edu", Role: models.RoleAdmin},
	{Name: "Maya's Kitchen", Email: "maya@campus.edu", Role: models.RoleVendor, Phone: "555-0100"},
	{Name: "Noodle Bar", Email: "noodles@campus.edu", Role: models.RoleVendor, Phone: "555-0101"},
	{Name: "Asha Student", Email: "asha@campus.edu", Role: models.RoleStudent, CampusAddress: "Hostel 4, Room 12"},
	{Name: "Ravi Rider", Email: "ravi@campus.edu", Role: models.RoleRider, Phone: "555-0199"},
}

var demoVendors = map[string]struct {
	vendor services.VendorInput
	meals  []services.MealInput
}{
	"maya@campus.edu": {
		vendor: services.VendorInput{Name: "Maya's Kitchen", Location: "Student Union, Ground Floor", Description: "Wraps, bowls and fresh juice"},
		meals: []services.MealInput{
			{Name: "Paneer Tikka Wrap", Price: 4.5, Category: "wraps", IsVeg: true, PrepMinutes: 10},
			{Name: "Chicken Rice Bowl", Price: 6.25, Category: "bowls", PrepMinutes: 12},
			{Name: "Mango Lassi", Price: 2.0, Category: "drinks", IsVeg: true, PrepMinutes: 3},
		},
	},
	"noodles@campus.edu": {
		vendor: services.VendorInput{Name: "Noodle Bar", Location: "Library Courtyard", Description: "Hand-pulled noodles"},
		meals: []services.MealInput{
			{Name: "Veg Hakka Noodles", Price: 5.0, Category: "noodles", IsVeg: true, PrepMinutes: 8},
			{Name: "Chilli Chicken Noodles", Price: 6.75, Category: "noodles", PrepMinutes: 10},
		},
	},
}

// Seed fills an empty database with demo accounts, vendors and meals. It
// does nothing when any user exists.
func (a *App) Seed(ctx context.Context) (*SeedResult, error) {
	var count int64
	if err := a.DB.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return &SeedResult{Skipped: true}, nil
	}

	res := &SeedResult{}
	for _, in := range demoUsers {
		in.Password = DemoPassword
		user, err := a.Services.Users.Register(ctx, in)
		if err != nil {
			return nil, err
		}
		res.Users++

		demo, ok := demoVendors[user.Email]
		if !ok {
			continue
		}
		if _, err := a.Services.Vendors.Create(ctx, user.ID, demo.vendor); err != nil {
			return nil, err
		}
		res.Vendors++
		for _, meal := range demo.meals {
			if _, err := a.Services.Meals.Create(ctx, user.ID, meal); err != nil {
				return nil, err
			}
			res.Meals++
		}
	}
	a.Log.WithFields(logrus.Fields{
		"users":   res.Users,
		"vendors": res.Vendors,
		"meals":   res.Meals,
	}).Info("demo data seeded")
	return res, nil
}
