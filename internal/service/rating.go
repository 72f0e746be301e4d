package service

import "carpool/internal/domain"

// RatingService maintains users' running-average reputation scores.
type RatingService struct{}

// NewRatingService creates a new RatingService.
func NewRatingService() *RatingService {
	return &RatingService{}
}

// Apply folds one new rating into the user's running average and bumps the
// count. The lifecycle guarantees this runs at most once per reservation
// and direction by rejecting re-rating.
func (s *RatingService) Apply(user *domain.User, rating int) {
	total := user.RatingAverage * float64(user.TotalRatings)
	user.TotalRatings++
	user.RatingAverage = (total + float64(rating)) / float64(user.TotalRatings)
}
