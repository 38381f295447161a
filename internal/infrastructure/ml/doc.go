// Package ml evaluates the three pretrained scikit-learn models from JSON
// exports written by scripts/export_artifacts.py. Nothing is fitted here.
//
// tfidf_vectorizer.json (TfidfVectorizer):
//
//	vocabulary    vocabulary_
//	idf           idf_ (null when use_idf=False)
//	stop_words    get_stop_words()
//	ngram_range   ngram_range
//	sublinear_tf  sublinear_tf
//	norm          norm ("none" for None)
//	lowercase     lowercase
//
// Only the word analyzer with the default token_pattern is supported.
//
// rf_model.json (RandomForestClassifier):
//
//	classes                 classes_
//	n_features              n_features_in_
//	positive_class          label whose predict_proba column is the risk probability
//	trees[i].children_left  estimators_[i].tree_.children_left
//	trees[i].children_right estimators_[i].tree_.children_right
//	trees[i].feature        estimators_[i].tree_.feature
//	trees[i].threshold      estimators_[i].tree_.threshold
//	trees[i].value          estimators_[i].tree_.value[:, 0, :]
//
// value rows may be counts or fractions; each leaf is normalised before averaging.
//
// anomaly_model.json (IsolationForest):
//
//	n_features              n_features_in_
//	max_samples             max_samples_
//	offset                  offset_
//	trees[i].*              estimators_[i].tree_ arrays as above, plus n_node_samples
//	trees[i].features       estimators_features_[i], only when max_features < n_features
//
// Splits compare the float32 value of a feature against threshold, as the
// trees were fitted on float32 input.
package ml
