// Package classifier provides CatClassifier implementations.
//
// Fake answers at random and is meant for demos and local runs. Rekognition
// asks AWS Rekognition for image labels and looks for a cat among them.
package classifier
