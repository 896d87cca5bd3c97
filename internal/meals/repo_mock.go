package meals

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type mealKey struct {
	userID   string
	date     time.Time
	mealType string
}

// repoMock is an in-memory stand-in for the mongo backed repo.
type repoMock struct {
	mutex sync.Mutex
	meals map[mealKey]*Meal
}

func newRepoMock() *repoMock {
	return &repoMock{
		meals: map[mealKey]*Meal{},
	}
}

func (r *repoMock) ListForUser(_ context.Context, userID string) ([]Meal, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var userMeals []Meal
	for _, meal := range r.meals {
		if meal.UserID == userID {
			userMeals = append(userMeals, *meal)
		}
	}
	sort.Slice(userMeals, func(i, j int) bool {
		return userMeals[i].Date.After(userMeals[j].Date)
	})
	return userMeals, nil
}

func (r *repoMock) Upsert(_ context.Context, meal Meal, now time.Time) (*Meal, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	key := mealKey{userID: meal.UserID, date: meal.Date, mealType: meal.MealType}
	existing, ok := r.meals[key]
	if ok {
		existing.Items = meal.Items
		existing.Calories = meal.Calories
		existing.Protein = meal.Protein
		existing.Notes = meal.Notes
		existing.UpdatedAt = now
		stored := *existing
		return &stored, nil
	}

	meal.ID = primitive.NewObjectID()
	meal.CreatedAt = now
	meal.UpdatedAt = now
	r.meals[key] = &meal
	stored := meal
	return &stored, nil
}

func (r *repoMock) Delete(_ context.Context, userID string, date time.Time, mealType string) (*Meal, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	key := mealKey{userID: userID, date: date, mealType: mealType}
	meal, ok := r.meals[key]
	if !ok {
		return nil, ErrMealNotFound
	}
	delete(r.meals, key)
	deleted := *meal
	return &deleted, nil
}
